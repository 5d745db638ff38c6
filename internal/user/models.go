package user

import "time"

// Role distinguishes the two kinds of account. It is fixed at registration.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// User is a registered account. Mentors have no MentorID; mentees always
// reference a mentor.
type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"user_type"`
	MentorID        *int64    `json:"mentor_id"`
	TeamName        string    `json:"team_name"`
	CurrentPosition string    `json:"current_position"`
	OfficeLocation  string    `json:"office_location"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) IsMentor() bool { return u.Role == RoleMentor }
func (u *User) IsMentee() bool { return u.Role == RoleMentee }

// RegisterInput is the registration request. A non-empty MentorEmail makes
// the new account a mentee of that mentor.
type RegisterInput struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	TeamName        string  `json:"team_name"`
	CurrentPosition string  `json:"current_position"`
	OfficeLocation  string  `json:"office_location"`
	MentorEmail     *string `json:"mentor_email,omitempty"`
}

// NewUser is a fully resolved row ready for insertion.
type NewUser struct {
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	MentorID        *int64
	TeamName        string
	CurrentPosition string
	OfficeLocation  string
}
