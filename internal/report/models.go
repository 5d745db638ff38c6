package report

import "time"

// Report is a mentee's weekly check-in, enriched with the mentee's current
// display name at read time.
type Report struct {
	ID              int64     `json:"id"`
	MenteeID        int64     `json:"mentee_id"`
	MentorID        int64     `json:"mentor_id"`
	WeekNumber      int       `json:"week_number"`
	Year            int       `json:"year"`
	Accomplishments string    `json:"accomplishments"`
	Blockers        string    `json:"blockers_concerns_comments"`
	Aspirations     string    `json:"aspirations"`
	SubmissionDate  time.Time `json:"submission_date"`
	MenteeName      string    `json:"mentee_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Input holds the caller-supplied fields. Updates replace all of them.
type Input struct {
	WeekNumber      int
	Year            int
	Accomplishments string
	Blockers        string
	Aspirations     string
}

// NewReport is a resolved row ready for insertion.
type NewReport struct {
	Input
	MenteeID    int64
	MentorID    int64
	SubmittedAt time.Time
}
