package db

import (
	"fmt"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/checkin"
	"github.com/jongibson0501/northstar-app/internal/goal"
	"github.com/jongibson0501/northstar-app/internal/jobs"
	"github.com/jongibson0501/northstar-app/internal/journal"
	"github.com/jongibson0501/northstar-app/internal/prefs"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&goal.Goal{},
		&goal.Milestone{},
		&goal.Action{},
		&checkin.DailyCheckIn{},
		&journal.Entry{},
		&prefs.Preferences{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Helpful indexes beyond what the model tags declare
	stmts := []string{
		`create index if not exists idx_milestones_goal_order on milestones(goal_id, order_index);`,
		`create index if not exists idx_actions_milestone_order on actions(milestone_id, order_index);`,
		`create index if not exists idx_check_ins_user_date_desc on daily_check_ins(user_id, date desc);`,
		`create index if not exists idx_journal_user_date_desc on journal_entries(user_id, date desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
