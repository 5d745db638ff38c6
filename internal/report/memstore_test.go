package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alecgard/mentorsync/internal/user"
)

// memRepo is an in-memory Repository enforcing the same per-week uniqueness
// as the database constraint.
type memRepo struct {
	mu sync.Mutex
	q  *memQueries
}

func newMemRepo(names map[int64]string) *memRepo {
	return &memRepo{q: &memQueries{reports: map[int64]*Report{}, names: names}}
}

func (r *memRepo) InTx(ctx context.Context, fn func(Queries) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.q.clone()
	if err := fn(r.q); err != nil {
		r.q = snapshot
		return err
	}
	return nil
}

func (r *memRepo) Insert(ctx context.Context, in NewReport) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Insert(ctx, in)
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.GetByID(ctx, id)
}

func (r *memRepo) FindByWeek(ctx context.Context, menteeID int64, week, year int) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.FindByWeek(ctx, menteeID, week, year)
}

func (r *memRepo) Update(ctx context.Context, id int64, in Input) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Update(ctx, id, in)
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Delete(ctx, id)
}

func (r *memRepo) LatestForMentee(ctx context.Context, menteeID int64, limit int) ([]*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.LatestForMentee(ctx, menteeID, limit)
}

func (r *memRepo) ListForMentor(ctx context.Context, mentorID int64) ([]*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.ListForMentor(ctx, mentorID)
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.q.reports)
}

type memQueries struct {
	reports map[int64]*Report
	names   map[int64]string
	nextID  int64

	staleWeekReads bool // FindByWeek misses, as a concurrent writer would see
}

func (q *memQueries) clone() *memQueries {
	cp := *q
	cp.reports = make(map[int64]*Report, len(q.reports))
	for id, r := range q.reports {
		rc := *r
		cp.reports[id] = &rc
	}
	return &cp
}

func (q *memQueries) view(r *Report) *Report {
	cp := *r
	cp.MenteeName = q.names[r.MenteeID]
	return &cp
}

func (q *memQueries) taken(menteeID int64, week, year int, exceptID int64) bool {
	for _, r := range q.reports {
		if r.ID != exceptID && r.MenteeID == menteeID && r.WeekNumber == week && r.Year == year {
			return true
		}
	}
	return false
}

func (q *memQueries) Insert(_ context.Context, in NewReport) (*Report, error) {
	if q.taken(in.MenteeID, in.WeekNumber, in.Year, 0) {
		return nil, duplicateWeek(in.WeekNumber, in.Year)
	}
	q.nextID++
	r := &Report{
		ID:              q.nextID,
		MenteeID:        in.MenteeID,
		MentorID:        in.MentorID,
		WeekNumber:      in.WeekNumber,
		Year:            in.Year,
		Accomplishments: in.Accomplishments,
		Blockers:        in.Blockers,
		Aspirations:     in.Aspirations,
		SubmissionDate:  in.SubmittedAt,
		CreatedAt:       in.SubmittedAt,
		UpdatedAt:       in.SubmittedAt,
	}
	q.reports[r.ID] = r
	return q.view(r), nil
}

func (q *memQueries) GetByID(_ context.Context, id int64) (*Report, error) {
	r, ok := q.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q.view(r), nil
}

func (q *memQueries) FindByWeek(_ context.Context, menteeID int64, week, year int) (*Report, error) {
	if q.staleWeekReads {
		return nil, ErrNotFound
	}
	for _, r := range q.reports {
		if r.MenteeID == menteeID && r.WeekNumber == week && r.Year == year {
			return q.view(r), nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) Update(_ context.Context, id int64, in Input) (*Report, error) {
	r, ok := q.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if q.taken(r.MenteeID, in.WeekNumber, in.Year, id) {
		return nil, duplicateWeek(in.WeekNumber, in.Year)
	}
	r.WeekNumber = in.WeekNumber
	r.Year = in.Year
	r.Accomplishments = in.Accomplishments
	r.Blockers = in.Blockers
	r.Aspirations = in.Aspirations
	r.UpdatedAt = time.Now()
	return q.view(r), nil
}

func (q *memQueries) Delete(_ context.Context, id int64) error {
	if _, ok := q.reports[id]; !ok {
		return ErrNotFound
	}
	delete(q.reports, id)
	return nil
}

func (q *memQueries) sorted(keep func(*Report) bool, less func(a, b *Report) bool) []*Report {
	out := []*Report{}
	for _, r := range q.reports {
		if keep(r) {
			out = append(out, q.view(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (q *memQueries) LatestForMentee(_ context.Context, menteeID int64, limit int) ([]*Report, error) {
	out := q.sorted(
		func(r *Report) bool { return r.MenteeID == menteeID },
		func(a, b *Report) bool {
			if a.Year != b.Year {
				return a.Year > b.Year
			}
			return a.WeekNumber > b.WeekNumber
		},
	)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *memQueries) ListForMentor(_ context.Context, mentorID int64) ([]*Report, error) {
	return q.sorted(
		func(r *Report) bool { return r.MentorID == mentorID },
		func(a, b *Report) bool {
			if !a.SubmissionDate.Equal(b.SubmissionDate) {
				return a.SubmissionDate.After(b.SubmissionDate)
			}
			return a.ID > b.ID
		},
	), nil
}

// memUsers is a fixed UserLookup.
type memUsers map[int64]*user.User

func (m memUsers) GetUser(_ context.Context, id int64) (*user.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
