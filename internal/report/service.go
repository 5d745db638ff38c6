package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/alecgard/mentorsync/internal/user"
)

// LatestLimit is the number of reports returned for a mentee's recent history.
const LatestLimit = 2

// Errors returned by the Service layer.
var (
	ErrMenteeNotFound = apperr.NotFound("Mentee not found")
	ErrMentorNotFound = apperr.NotFound("Mentor not found")
)

// Queries is the set of report reads and writes the service needs.
type Queries interface {
	Insert(ctx context.Context, in NewReport) (*Report, error)
	GetByID(ctx context.Context, id int64) (*Report, error)
	FindByWeek(ctx context.Context, menteeID int64, week, year int) (*Report, error)
	Update(ctx context.Context, id int64, in Input) (*Report, error)
	Delete(ctx context.Context, id int64) error
	LatestForMentee(ctx context.Context, menteeID int64, limit int) ([]*Report, error)
	ListForMentor(ctx context.Context, mentorID int64) ([]*Report, error)
}

// Repository adds transactional scoping to Queries.
type Repository interface {
	Queries
	InTx(ctx context.Context, fn func(Queries) error) error
}

// UserLookup resolves user ids. It is satisfied by *user.Service.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*user.User, error)
}

// Service implements weekly report submission and review.
type Service struct {
	repo  Repository
	users UserLookup
	now   func() time.Time
}

// NewService creates a new Service.
func NewService(repo Repository, users UserLookup) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Create submits a report for menteeID. The report's mentor is copied from
// the mentee's current mentor link.
func (s *Service) Create(ctx context.Context, menteeID int64, in Input) (*Report, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	mentee, err := s.users.GetUser(ctx, menteeID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrMenteeNotFound
	}
	if err != nil {
		return nil, err
	}
	if !mentee.IsMentee() {
		return nil, ErrMenteeNotFound
	}
	if mentee.MentorID == nil {
		return nil, fmt.Errorf("mentee %d has no mentor link", menteeID)
	}

	var created *Report
	err = s.repo.InTx(ctx, func(q Queries) error {
		if _, err := q.FindByWeek(ctx, menteeID, in.WeekNumber, in.Year); err == nil {
			return duplicateWeek(in.WeekNumber, in.Year)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		r, err := q.Insert(ctx, NewReport{
			Input:       in,
			MenteeID:    menteeID,
			MentorID:    *mentee.MentorID,
			SubmittedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// LatestForMentee returns the mentee's two most recent reports by week.
// Any existing user id is accepted.
func (s *Service) LatestForMentee(ctx context.Context, menteeID int64) ([]*Report, error) {
	if _, err := s.users.GetUser(ctx, menteeID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrMenteeNotFound
		}
		return nil, err
	}
	return s.repo.LatestForMentee(ctx, menteeID, LatestLimit)
}

// ForMentor returns every report submitted to mentorID, newest submission first.
func (s *Service) ForMentor(ctx context.Context, mentorID int64) ([]*Report, error) {
	mentor, err := s.users.GetUser(ctx, mentorID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrMentorNotFound
	}
	if err != nil {
		return nil, err
	}
	if !mentor.IsMentor() {
		return nil, ErrMentorNotFound
	}
	return s.repo.ListForMentor(ctx, mentorID)
}

// Update replaces all mutable fields of a report. Moving a report onto a
// week the mentee already reported fails with a conflict.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Report, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var updated *Report
	err := s.repo.InTx(ctx, func(q Queries) error {
		existing, err := q.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if existing.WeekNumber != in.WeekNumber || existing.Year != in.Year {
			other, err := q.FindByWeek(ctx, existing.MenteeID, in.WeekNumber, in.Year)
			if err == nil && other.ID != id {
				return duplicateWeek(in.WeekNumber, in.Year)
			}
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		r, err := q.Update(ctx, id, in)
		if err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete permanently removes a report.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(q Queries) error {
		return q.Delete(ctx, id)
	})
}

func validateInput(in Input) error {
	if in.WeekNumber < 1 || in.WeekNumber > 53 {
		return apperr.Validation("week_number must be between 1 and 53")
	}
	if in.Year < 1 || in.Year > 9999 {
		return apperr.Validation("year must be between 1 and 9999")
	}
	return nil
}
