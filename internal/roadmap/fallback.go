package roadmap

import (
	"fmt"
	"strings"
)

// The fallback generator is an ordered rule table: the first category whose
// keywords match the goal text wins, and the generic template closes the
// table. New categories are added as rows, not as new control flow.

type category struct {
	name      string
	keywords  []string
	plan      []stagePlan
	questions []string
}

// stagePlan is one timeframe slot of a category template. Stages beyond the
// goal's timeline are dropped when the template is materialized.
type stagePlan struct {
	timeframe string
	months    int // minimum timeline length, in months, for this stage
	title     string
	actions   []string
}

var categories = []category{
	{
		name:     "fitness",
		keywords: []string{"shape", "fit", "health", "weight", "exercise", "run", "gym"},
		plan: []stagePlan{
			{"Week 1", 1, "Get Started This Week", []string{
				"Schedule 3 workout days this week",
				"Take baseline measurements and photos",
				"Download a fitness tracking app",
				"Clear out junk food from the kitchen",
			}},
			{"Month 1", 1, "Build Your Foundation", []string{
				"Complete 4 weeks of consistent workouts",
				"Establish a healthy eating routine",
				"Find a workout buddy or join a fitness community",
				"Track progress and adjust the plan as needed",
			}},
			{"Month 3", 3, "Level Up Your Fitness", []string{
				"Increase workout intensity and duration",
				"Try new types of exercise for variety",
				"See measurable improvements in strength or endurance",
				"Refine the nutrition plan based on results",
			}},
			{"Month 6", 6, "Hit Your Stride", []string{
				"Achieve significant fitness improvements",
				"Set new challenging but achievable targets",
				"Help someone else get started",
				"Plan an active vacation or fitness event",
			}},
			{"Month 12", 12, "Master Your Fitness Journey", []string{
				"Achieve the original fitness targets",
				"Develop sustainable long-term habits",
				"Set ambitious new fitness challenges",
				"Share your transformation story",
			}},
		},
		questions: []string{
			"How often do you currently exercise?",
			"What time of day works best for you to work out?",
			"Do you prefer working out at home, at a gym, or outdoors?",
			"What fitness approaches have or haven't worked for you before?",
			"What aspect of getting in shape motivates you most?",
		},
	},
	{
		name:     "learning",
		keywords: []string{"learn", "study", "skill", "language", "course", "read"},
		plan: []stagePlan{
			{"Week 1", 1, "Set Up Your Learning Foundation", []string{
				"Choose a primary learning resource",
				"Set up a daily 15-30 minute study schedule",
				"Cover the absolute basics of the subject",
				"Create accounts on the apps or platforms you'll use",
			}},
			{"Month 1", 1, "Build Core Knowledge", []string{
				"Master the fundamental concepts or vocabulary",
				"Complete the beginner lessons",
				"Practice a little every day",
				"Start producing simple work of your own",
			}},
			{"Month 3", 3, "Start Applying What You Learn", []string{
				"Expand beyond the basics",
				"Practice with a partner or community",
				"Consume real material daily, even if it's hard",
				"Produce small projects or written pieces regularly",
			}},
			{"Month 6", 6, "Reach Intermediate Level", []string{
				"Work through intermediate material comfortably",
				"Hold your own in real conversations or projects",
				"Identify and drill your weak spots",
			}},
			{"Month 9", 9, "Advanced Application", []string{
				"Engage with native-level or professional material",
				"Participate in communities around the subject",
				"Tackle complex topics without hand-holding",
			}},
			{"Month 12", 12, "Near Mastery", []string{
				"Operate at a practical, real-world level",
				"Produce work you would show to others",
				"Plan how you'll keep the skill alive",
			}},
		},
		questions: []string{
			"What is your current experience level with this subject?",
			"How much time can you dedicate to learning each week?",
			"Do you learn best by reading, watching, or doing?",
			"What learning resources do you already have access to?",
			"What would success look like at the end of your timeline?",
		},
	},
	{
		name:     "career",
		keywords: []string{"career", "job", "business", "work", "promotion", "startup"},
		plan: []stagePlan{
			{"Week 1", 1, "Define the Target", []string{
				"Write down the specific role or outcome you want",
				"List the skills and connections you already have",
				"Identify the top three gaps to close",
			}},
			{"Month 1", 1, "Build Momentum", []string{
				"Update your resume, portfolio, or pitch",
				"Reach out to three people in the space",
				"Start closing the most important skill gap",
			}},
			{"Month 3", 3, "Show Your Work", []string{
				"Ship something visible: a project, talk, or result",
				"Grow your network deliberately",
				"Ask for feedback from someone senior",
			}},
			{"Month 6", 6, "Make the Move", []string{
				"Apply, pitch, or ask for the promotion",
				"Iterate based on rejections and feedback",
				"Keep the pipeline of opportunities warm",
			}},
			{"Month 12", 12, "Establish Yourself", []string{
				"Land the target role or outcome",
				"Set up the habits that keep you growing",
				"Help someone else make a similar move",
			}},
		},
		questions: []string{
			"What specific career change or advancement are you seeking?",
			"What skills or connections do you already have for this?",
			"How much time per week can you invest outside current obligations?",
			"What obstacles do you anticipate?",
			"What would achieving this change for your life?",
		},
	},
	{
		name:     "finance",
		keywords: []string{"money", "save", "debt", "financial", "income", "budget", "invest"},
		plan: []stagePlan{
			{"Week 1", 1, "Face the Numbers", []string{
				"Write down every account, debt, and balance",
				"Track a full week of spending",
				"Pick the one number you want to move",
			}},
			{"Month 1", 1, "Set the System Up", []string{
				"Build a simple monthly budget",
				"Automate a recurring transfer toward the goal",
				"Cut the two most painless expenses",
			}},
			{"Month 3", 3, "Hold the Line", []string{
				"Hit the monthly target three times in a row",
				"Review and adjust the budget honestly",
				"Handle one irregular expense without derailing",
			}},
			{"Month 6", 6, "Accelerate", []string{
				"Increase the monthly amount",
				"Find one way to raise income",
				"Celebrate the halfway point deliberately",
			}},
			{"Month 12", 12, "Arrive and Automate", []string{
				"Reach the target number",
				"Lock in the habits that got you there",
				"Set the next financial goal",
			}},
		},
		questions: []string{
			"What specific financial goal are you working toward?",
			"How much can you realistically set aside each month?",
			"Where do you see opportunities to optimize your spending?",
			"What saving or budgeting strategies have you tried before?",
			"What would reaching this goal enable you to do?",
		},
	},
}

var genericPlan = []stagePlan{
	{"Week 1", 1, "Get Started", []string{
		"Set up your initial plan and resources",
		"Take the first concrete step",
		"Establish a routine or schedule",
	}},
	{"Month 1", 1, "Build Momentum", []string{
		"Keep a consistent weekly rhythm",
		"Review what's working and what isn't",
		"Remove the biggest blocker you've found",
	}},
	{"Month 3", 3, "Reach the Midpoint", []string{
		"Hit a visible, measurable marker of progress",
		"Adjust the plan based on three months of reality",
	}},
	{"Month 6", 6, "Push Through", []string{
		"Maintain the habit through the hard middle stretch",
		"Raise the bar on what a good week looks like",
	}},
	{"Month 12", 12, "Finish Strong", []string{
		"Complete the goal as originally defined",
		"Write down what you learned for the next one",
	}},
}

var genericQuestions = []string{
	"What is your current situation and what do you want to achieve?",
	"What resources or support do you already have?",
	"How much time can you dedicate each week?",
	"What challenges do you anticipate?",
	"How will you know when you've achieved your goal?",
}

// TimelineMonths converts a timeline category to its length in months.
// customValue applies only to the custom category.
func TimelineMonths(timeline string, customValue *int) int {
	switch timeline {
	case "1_month":
		return 1
	case "3_months":
		return 3
	case "6_months":
		return 6
	case "1_year":
		return 12
	case "custom":
		if customValue != nil && *customValue > 0 {
			return *customValue
		}
	}
	return 12
}

func matchCategory(goalTitle string) *category {
	text := strings.ToLower(goalTitle)
	for i := range categories {
		for _, kw := range categories[i].keywords {
			if strings.Contains(text, kw) {
				return &categories[i]
			}
		}
	}
	return nil
}

// FallbackMilestones materializes the matching category template, truncated
// to the goal's timeline.
func FallbackMilestones(goalTitle, timeline string) []MilestonePlan {
	months := TimelineMonths(timeline, nil)
	plan := genericPlan
	if c := matchCategory(goalTitle); c != nil {
		plan = c.plan
	}

	var out []MilestonePlan
	for _, stage := range plan {
		if stage.months > months {
			continue
		}
		m := MilestonePlan{Title: stage.title, Timeframe: stage.timeframe}
		for _, a := range stage.actions {
			m.Actions = append(m.Actions, ActionPlan{Title: a})
		}
		out = append(out, m)
	}
	return out
}

// FallbackQuestions returns the category question set, with the generic set
// personalized to the goal title.
func FallbackQuestions(goalTitle, timeline string) []string {
	if c := matchCategory(goalTitle); c != nil {
		return c.questions
	}
	out := make([]string, len(genericQuestions))
	copy(out, genericQuestions)
	out[0] = fmt.Sprintf("What is your current situation regarding %q and what do you want to achieve?", goalTitle)
	return out
}
