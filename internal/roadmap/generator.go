package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ActionPlan and MilestonePlan are the generator's output shape. Timeframe
// is a human label ("Week 1", "Month 3") parsed into a tagged period when
// the plan is persisted.
type ActionPlan struct {
	Title string `json:"title"`
}

type MilestonePlan struct {
	Title     string       `json:"title"`
	Timeframe string       `json:"timeframe"`
	Actions   []ActionPlan `json:"actions"`
}

type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generator produces clarifying questions and a milestone roadmap for a
// goal. Implementations must not hard-fail on upstream unavailability.
type Generator interface {
	Questions(ctx context.Context, goalTitle, timeline string) ([]string, error)
	Milestones(ctx context.Context, goalTitle, timeline string, qa []QA) ([]MilestonePlan, error)
}

// Service is the production generator: OpenAI when a client is configured,
// the deterministic keyword fallback otherwise or whenever the API call
// fails. Upstream failure is absorbed locally and only logged, so the
// user-facing flow never hard-fails on the dependency.
type Service struct {
	Client *openai.Client // nil means fallback-only mode
	Log    *slog.Logger
}

var _ Generator = (*Service)(nil)

func (s *Service) Questions(ctx context.Context, goalTitle, timeline string) ([]string, error) {
	if s.Client != nil {
		qs, err := s.questionsAI(ctx, goalTitle, timeline)
		if err == nil && len(qs) > 0 {
			return qs, nil
		}
		s.logFallback("questions", err)
	}
	return FallbackQuestions(goalTitle, timeline), nil
}

func (s *Service) Milestones(ctx context.Context, goalTitle, timeline string, qa []QA) ([]MilestonePlan, error) {
	if s.Client != nil {
		ms, err := s.milestonesAI(ctx, goalTitle, timeline, qa)
		if err == nil && len(ms) > 0 {
			return ms, nil
		}
		s.logFallback("milestones", err)
	}
	return FallbackMilestones(goalTitle, timeline), nil
}

func (s *Service) logFallback(kind string, err error) {
	if s.Log == nil {
		return
	}
	if err == nil {
		err = errors.New("empty response")
	}
	s.Log.Warn("roadmap generator unavailable, using fallback", "kind", kind, "err", err)
}

func (s *Service) questionsAI(ctx context.Context, goalTitle, timeline string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate exactly 5 simple, easy-to-answer questions for someone working on: %q in %s.

Make questions conversational and specific. Focus on:
1. Where they are now (current state)
2. What time they have available
3. What they prefer or enjoy
4. What has worked/not worked before
5. What success looks like to them

Keep questions under 15 words each.

Return only a JSON object with a "questions" array containing exactly 5 question strings.`,
		goalTitle, timelineLabel(timeline))

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var out struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (s *Service) milestonesAI(ctx context.Context, goalTitle, timeline string, qa []QA) ([]MilestonePlan, error) {
	var qb strings.Builder
	for _, p := range qa {
		fmt.Fprintf(&qb, "Q: %s\nA: %s\n\n", p.Question, p.Answer)
	}

	prompt := fmt.Sprintf(`Create a specific, actionable roadmap for the goal: %q to be achieved in %s.

User context:
%s
Generate progressive milestones. Each milestone needs:
- A specific title describing what they'll achieve
- timeframe: one of "Week 1", "Month 1", "Month 3", "Month 6", "Month 9", "Month 12"
- 3-5 concrete actions with specific, measurable steps

Return JSON: {"milestones": [{"title": "...", "timeframe": "Week 1", "actions": [{"title": "..."}]}]}`,
		goalTitle, timelineLabel(timeline), qb.String())

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var out struct {
		Milestones []MilestonePlan `json:"milestones"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, err
	}
	return out.Milestones, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4o,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func timelineLabel(timeline string) string {
	return strings.ReplaceAll(timeline, "_", " ")
}
