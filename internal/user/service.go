package user

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"sync"

	"github.com/alecgard/mentorsync/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by the Service layer.
var (
	ErrMentorEmailNotFound = apperr.InvalidReference("Mentor email not found")
	ErrNotAMentor          = apperr.InvalidReference("Specified user is not a mentor")
	ErrMentorNotFound      = apperr.NotFound("Mentor not found")
	ErrInvalidCredentials  = apperr.Unauthorized("Invalid email or password")
	ErrAccountDeactivated  = apperr.Unauthorized("Account is deactivated")
)

// Queries is the set of user reads and writes the service needs.
type Queries interface {
	Insert(ctx context.Context, in NewUser) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListMentees(ctx context.Context, mentorID int64) ([]*User, error)
	SetActive(ctx context.Context, id int64, active bool) (*User, error)
}

// Repository adds transactional scoping to Queries.
type Repository interface {
	Queries
	InTx(ctx context.Context, fn func(Queries) error) error
}

// ProfileCache stores serialized profiles keyed by string. Implementations
// must treat a miss as (false, nil).
type ProfileCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Service implements registration, authentication and profile lookups.
type Service struct {
	repo  Repository
	cache ProfileCache // nil disables caching
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
	dummyErr  error
}

// NewService creates a new Service. cache may be nil.
func NewService(repo Repository, cache ProfileCache) *Service {
	return &Service{repo: repo, cache: cache, cost: bcrypt.DefaultCost}
}

// Register creates a mentor, or a mentee when in.MentorEmail names an
// existing mentor. A taken email is reported as a conflict before any other
// field is checked. The mentor lookup and the insert share one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validateEmails(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := validateRequired(in); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *User
	err = s.repo.InTx(ctx, func(q Queries) error {
		if _, err := q.GetByEmail(ctx, in.Email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		nu := NewUser{
			Name:            in.Name,
			Email:           in.Email,
			PasswordHash:    hash,
			Role:            RoleMentor,
			TeamName:        in.TeamName,
			CurrentPosition: in.CurrentPosition,
			OfficeLocation:  in.OfficeLocation,
		}

		if in.MentorEmail != nil && *in.MentorEmail != "" {
			mentor, err := q.GetByEmail(ctx, *in.MentorEmail)
			if errors.Is(err, ErrNotFound) {
				return ErrMentorEmailNotFound
			}
			if err != nil {
				return err
			}
			if !mentor.IsMentor() {
				return ErrNotAMentor
			}
			nu.Role = RoleMentee
			nu.MentorID = &mentor.ID
		}

		u, err := q.Insert(ctx, nu)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Authenticate verifies credentials and returns the matching active user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Burn the same bcrypt work as a real comparison.
		dummy, err := s.dummy()
		if err != nil {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummy, passwordKey(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDeactivated
	}
	return u, nil
}

// GetUser returns the profile for id, consulting the profile cache first.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	key := cacheKey(id)
	if s.cache != nil {
		var cached User
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			slog.Warn("profile cache read failed", "user_id", id, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, u); err != nil {
			slog.Warn("profile cache write failed", "user_id", id, "error", err)
		}
	}
	return u, nil
}

// GetMentees lists the active mentees of mentorID, which must be a mentor.
func (s *Service) GetMentees(ctx context.Context, mentorID int64) ([]*User, error) {
	mentor, err := s.repo.GetByID(ctx, mentorID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrMentorNotFound
	}
	if err != nil {
		return nil, err
	}
	if !mentor.IsMentor() {
		return nil, ErrMentorNotFound
	}
	return s.repo.ListMentees(ctx, mentorID)
}

// SetActive activates or deactivates an account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	var updated *User
	err := s.repo.InTx(ctx, func(q Queries) error {
		u, err := q.SetActive(ctx, id, active)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
			slog.Warn("profile cache invalidation failed", "user_id", id, "error", err)
		}
	}
	return updated, nil
}

// CheckPassword verifies a plaintext password against the user's stored hash
// in constant time.
func CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), passwordKey(password)) == nil
}

// passwordKey condenses a password of any length into the 44 bytes bcrypt
// hashes, keeping it under bcrypt's 72-byte input limit.
func passwordKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordKey(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// dummy returns a hash at the service's cost for comparisons against
// unknown emails. It is computed once.
func (s *Service) dummy() ([]byte, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = bcrypt.GenerateFromPassword(passwordKey("mentorsync-dummy-password"), s.cost)
		if s.dummyErr != nil {
			s.dummyErr = fmt.Errorf("hashing dummy password: %w", s.dummyErr)
		}
	})
	return s.dummyHash, s.dummyErr
}

func cacheKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// validateEmails checks the address fields, which must be well formed
// before the email can be looked up.
func validateEmails(in RegisterInput) error {
	if strings.TrimSpace(in.Email) == "" {
		return apperr.Validation("email is required")
	}
	if !validEmail(in.Email) {
		return apperr.Validation("email is not a valid address")
	}
	if in.MentorEmail != nil && *in.MentorEmail != "" && !validEmail(*in.MentorEmail) {
		return apperr.Validation("mentor_email is not a valid address")
	}
	return nil
}

func validateRequired(in RegisterInput) error {
	required := []struct {
		field, value string
	}{
		{"name", in.Name},
		{"password", in.Password},
		{"team_name", in.TeamName},
		{"current_position", in.CurrentPosition},
		{"office_location", in.OfficeLocation},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field + " is required")
		}
	}
	return nil
}

// validEmail accepts bare addresses only, not "Name <addr>" forms.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
