package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/alecgard/mentorsync/internal/crypto"
	"github.com/alecgard/mentorsync/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a report id does not resolve.
var ErrNotFound = apperr.NotFound("Report not found")

const weekConstraint = "unique_mentee_week_year"

// reportSelect reads a report aliased r joined to its mentee aliased u.
const reportSelect = `r.id, r.mentee_id, r.mentor_id, r.week_number, r.year,
	r.accomplishments, r.blockers_concerns_comments, r.aspirations,
	r.submission_date, r.created_at, r.updated_at, u.name`

// duplicateWeek reports an existing report for the same mentee, week and year.
func duplicateWeek(week, year int) error {
	return apperr.Conflict(fmt.Sprintf("Report already exists for week %d, %d", week, year))
}

// Store provides database operations for weekly reports.
type Store struct {
	*queries
	pool *pgxpool.Pool
}

// NewStore creates a report store. fields may be nil to store text unsealed.
func NewStore(pool *pgxpool.Pool, fields *crypto.FieldCipher) *Store {
	return &Store{queries: &queries{db: pool, fields: fields}, pool: pool}
}

// InTx runs fn with queries bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(Queries) error) error {
	return database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{db: tx, fields: s.fields})
	})
}

type queries struct {
	db     database.DBTX
	fields *crypto.FieldCipher
}

func (q *queries) scanReport(row pgx.Row) (*Report, error) {
	r := &Report{}
	err := row.Scan(&r.ID, &r.MenteeID, &r.MentorID, &r.WeekNumber, &r.Year,
		&r.Accomplishments, &r.Blockers, &r.Aspirations,
		&r.SubmissionDate, &r.CreatedAt, &r.UpdatedAt, &r.MenteeName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := q.fields.OpenAll(&r.Accomplishments, &r.Blockers, &r.Aspirations); err != nil {
		return nil, fmt.Errorf("opening report %d: %w", r.ID, err)
	}
	return r, nil
}

func (q *queries) collect(rows pgx.Rows) ([]*Report, error) {
	defer rows.Close()
	reports := []*Report{}
	for rows.Next() {
		r, err := q.scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// sealed returns copies of the text fields ready for storage.
func (q *queries) sealed(in Input) (string, string, string, error) {
	a, b, c := in.Accomplishments, in.Blockers, in.Aspirations
	if err := q.fields.SealAll(&a, &b, &c); err != nil {
		return "", "", "", fmt.Errorf("sealing report fields: %w", err)
	}
	return a, b, c, nil
}

// Insert creates a report. A second report for the same mentee, week and
// year fails with a conflict.
func (q *queries) Insert(ctx context.Context, in NewReport) (*Report, error) {
	a, b, c, err := q.sealed(in.Input)
	if err != nil {
		return nil, err
	}

	r, err := q.scanReport(q.db.QueryRow(ctx,
		`WITH r AS (
			INSERT INTO weekly_reports
				(mentee_id, mentor_id, week_number, year, accomplishments,
				 blockers_concerns_comments, aspirations, submission_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8)
			RETURNING *
		)
		SELECT `+reportSelect+` FROM r JOIN users u ON u.id = r.mentee_id`,
		in.MenteeID, in.MentorID, in.WeekNumber, in.Year, a, b, c, in.SubmittedAt,
	))
	if database.IsUniqueViolation(err, weekConstraint) {
		return nil, duplicateWeek(in.WeekNumber, in.Year)
	}
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}
	return r, nil
}

// GetByID retrieves a report by primary key.
func (q *queries) GetByID(ctx context.Context, id int64) (*Report, error) {
	r, err := q.scanReport(q.db.QueryRow(ctx,
		`SELECT `+reportSelect+`
		 FROM weekly_reports r JOIN users u ON u.id = r.mentee_id
		 WHERE r.id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("getting report by id: %w", err)
	}
	return r, err
}

// FindByWeek retrieves the mentee's report for the given week and year.
func (q *queries) FindByWeek(ctx context.Context, menteeID int64, week, year int) (*Report, error) {
	r, err := q.scanReport(q.db.QueryRow(ctx,
		`SELECT `+reportSelect+`
		 FROM weekly_reports r JOIN users u ON u.id = r.mentee_id
		 WHERE r.mentee_id = $1 AND r.week_number = $2 AND r.year = $3`,
		menteeID, week, year))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("finding report by week: %w", err)
	}
	return r, err
}

// Update replaces the mutable fields of a report and refreshes updated_at.
func (q *queries) Update(ctx context.Context, id int64, in Input) (*Report, error) {
	a, b, c, err := q.sealed(in)
	if err != nil {
		return nil, err
	}

	r, err := q.scanReport(q.db.QueryRow(ctx,
		`WITH r AS (
			UPDATE weekly_reports
			SET week_number = $1, year = $2, accomplishments = $3,
			    blockers_concerns_comments = $4, aspirations = $5, updated_at = now()
			WHERE id = $6
			RETURNING *
		)
		SELECT `+reportSelect+` FROM r JOIN users u ON u.id = r.mentee_id`,
		in.WeekNumber, in.Year, a, b, c, id,
	))
	if database.IsUniqueViolation(err, weekConstraint) {
		return nil, duplicateWeek(in.WeekNumber, in.Year)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("updating report: %w", err)
	}
	return r, err
}

// Delete removes a report permanently.
func (q *queries) Delete(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM weekly_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestForMentee returns up to limit reports, most recent week first.
func (q *queries) LatestForMentee(ctx context.Context, menteeID int64, limit int) ([]*Report, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+reportSelect+`
		 FROM weekly_reports r JOIN users u ON u.id = r.mentee_id
		 WHERE r.mentee_id = $1
		 ORDER BY r.year DESC, r.week_number DESC
		 LIMIT $2`, menteeID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing latest reports: %w", err)
	}
	return q.collect(rows)
}

// ListForMentor returns every report linked to mentorID, most recently
// submitted first.
func (q *queries) ListForMentor(ctx context.Context, mentorID int64) ([]*Report, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+reportSelect+`
		 FROM weekly_reports r JOIN users u ON u.id = r.mentee_id
		 WHERE r.mentor_id = $1
		 ORDER BY r.submission_date DESC, r.id DESC`, mentorID)
	if err != nil {
		return nil, fmt.Errorf("listing mentor reports: %w", err)
	}
	return q.collect(rows)
}
