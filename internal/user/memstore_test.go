package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

// memRepo is an in-memory Repository. InTx serializes transactions and
// restores the previous state when fn fails.
type memRepo struct {
	mu sync.Mutex
	q  *memQueries
}

func newMemRepo() *memRepo {
	return &memRepo{q: &memQueries{users: map[int64]*User{}}}
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

func (r *memRepo) Insert(ctx context.Context, in NewUser) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Insert(ctx, in)
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.q.getByIDCalls++
	return r.q.GetByID(ctx, id)
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.GetByEmail(ctx, email)
}

func (r *memRepo) ListMentees(ctx context.Context, mentorID int64) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.ListMentees(ctx, mentorID)
}

func (r *memRepo) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.SetActive(ctx, id, active)
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.q.users)
}

type memQueries struct {
	users        map[int64]*User
	nextID       int64
	getByIDCalls int

	staleEmailReads bool  // GetByEmail misses, as a concurrent writer would see
	insertErr       error // forced Insert failure
}

func (q *memQueries) clone() *memQueries {
	cp := *q
	cp.users = make(map[int64]*User, len(q.users))
	for id, u := range q.users {
		uc := *u
		cp.users[id] = &uc
	}
	return &cp
}

func (q *memQueries) Insert(_ context.Context, in NewUser) (*User, error) {
	if q.insertErr != nil {
		return nil, q.insertErr
	}
	for _, u := range q.users {
		if u.Email == in.Email {
			return nil, ErrEmailTaken
		}
	}
	q.nextID++
	now := time.Now()
	u := &User{
		ID:              q.nextID,
		Name:            in.Name,
		Email:           in.Email,
		PasswordHash:    in.PasswordHash,
		Role:            in.Role,
		MentorID:        in.MentorID,
		TeamName:        in.TeamName,
		CurrentPosition: in.CurrentPosition,
		OfficeLocation:  in.OfficeLocation,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	q.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (q *memQueries) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := q.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (q *memQueries) GetByEmail(_ context.Context, email string) (*User, error) {
	if q.staleEmailReads {
		return nil, ErrNotFound
	}
	for _, u := range q.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) ListMentees(_ context.Context, mentorID int64) ([]*User, error) {
	out := []*User{}
	for id := int64(1); id <= q.nextID; id++ {
		u, ok := q.users[id]
		if !ok || !u.IsActive || u.MentorID == nil || *u.MentorID != mentorID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (q *memQueries) SetActive(_ context.Context, id int64, active bool) (*User, error) {
	u, ok := q.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

// memCache is an in-memory ProfileCache that stores values by reference.
type memCache struct {
	mu      sync.Mutex
	entries map[string]User
	hits    int
	readErr error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]User{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return false, c.readErr
	}
	u, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	p, ok := dest.(*User)
	if !ok {
		return false, errors.New("unexpected destination type")
	}
	*p = u
	c.hits++
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := value.(*User)
	if !ok {
		return errors.New("unexpected value type")
	}
	c.entries[key] = *u
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
