package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/alecgard/mentorsync/internal/crypto"
	"github.com/alecgard/mentorsync/internal/database"
	"github.com/alecgard/mentorsync/internal/report"
	"github.com/alecgard/mentorsync/internal/user"
	"github.com/spf13/cobra"
)

const demoPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo mentors, mentees and weekly reports",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type demoUser struct {
	name, email, team, position, office string
	mentorEmail                         string
}

// Mentors come first so mentees can reference them.
var demoUsers = []demoUser{
	{"Alice Johnson", "alice.johnson@company.com", "Engineering", "Senior Software Engineer", "New York", ""},
	{"Bob Smith", "bob.smith@company.com", "Product", "Product Manager", "San Francisco", ""},
	{"Charlie Brown", "charlie.brown@company.com", "Engineering", "Junior Software Engineer", "New York", "alice.johnson@company.com"},
	{"Diana Prince", "diana.prince@company.com", "Engineering", "Software Engineer Intern", "Remote", "alice.johnson@company.com"},
	{"Edward Wilson", "edward.wilson@company.com", "Product", "Associate Product Manager", "San Francisco", "bob.smith@company.com"},
}

type demoReport struct {
	menteeEmail string
	in          report.Input
}

var demoReports = []demoReport{
	{"charlie.brown@company.com", report.Input{
		WeekNumber:      1,
		Year:            2024,
		Accomplishments: "Completed onboarding training and set up development environment. Fixed 2 minor bugs in the user authentication system.",
		Blockers:        "Having trouble understanding the legacy codebase architecture. Need guidance on testing best practices.",
		Aspirations:     "Want to learn more about system design and contribute to a major feature this quarter.",
	}},
	{"diana.prince@company.com", report.Input{
		WeekNumber:      1,
		Year:            2024,
		Accomplishments: "Finished React tutorial and created first component for the dashboard. Attended all team standups.",
		Blockers:        "Need help with state management in React. Code reviews are taking longer than expected.",
		Aspirations:     "Goal is to become proficient in frontend development and eventually work on full-stack features.",
	}},
	{"edward.wilson@company.com", report.Input{
		WeekNumber:      1,
		Year:            2024,
		Accomplishments: "Conducted user interviews for the new feature. Created wireframes and initial product requirements document.",
		Blockers:        "Stakeholders have conflicting priorities. Need help prioritizing features for the roadmap.",
		Aspirations:     "Want to improve my skills in data analysis and learn more about A/B testing methodologies.",
	}},
	{"charlie.brown@company.com", report.Input{
		WeekNumber:      2,
		Year:            2024,
		Accomplishments: "Implemented a new API endpoint for user preferences. Wrote comprehensive unit tests.",
		Blockers:        "Performance issues with database queries. Need to optimize some slow endpoints.",
		Aspirations:     "Looking forward to presenting my work at the next team demo and getting feedback.",
	}},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	fields, err := crypto.NewFieldCipher(cfg.Encryption.Key)
	if err != nil {
		return err
	}

	userStore := user.NewStore(pool)
	users := user.NewService(userStore, nil)
	reports := report.NewService(report.NewStore(pool, fields), users)

	ids, err := seedUsers(ctx, users, userStore)
	if err != nil {
		return err
	}

	created := 0
	for _, dr := range demoReports {
		_, err := reports.Create(ctx, ids[dr.menteeEmail], dr.in)
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding report for %s week %d: %w", dr.menteeEmail, dr.in.WeekNumber, err)
		}
		created++
	}

	slog.Info("seed complete", "users", len(ids), "reports_created", created)
	fmt.Printf("Seeded %d users (password %q) and %d new reports.\n", len(ids), demoPassword, created)
	return nil
}

// seedUsers registers the demo accounts, reusing any that already exist, and
// returns their ids by email.
func seedUsers(ctx context.Context, users *user.Service, store *user.Store) (map[string]int64, error) {
	ids := make(map[string]int64, len(demoUsers))
	for _, du := range demoUsers {
		in := user.RegisterInput{
			Name:            du.name,
			Email:           du.email,
			Password:        demoPassword,
			TeamName:        du.team,
			CurrentPosition: du.position,
			OfficeLocation:  du.office,
		}
		if du.mentorEmail != "" {
			mentorEmail := du.mentorEmail
			in.MentorEmail = &mentorEmail
		}

		u, err := users.Register(ctx, in)
		if errors.Is(err, user.ErrEmailTaken) {
			u, err = store.GetByEmail(ctx, du.email)
		}
		if err != nil {
			return nil, fmt.Errorf("seeding user %s: %w", du.email, err)
		}
		ids[du.email] = u.ID
	}
	return ids, nil
}
