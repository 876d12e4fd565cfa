package services

import "time"

// QuestionType fixes the answer shape for a question at creation time.
type QuestionType string

const (
	TypeSingle  QuestionType = "single"
	TypeRating  QuestionType = "rating"
	TypeNumeric QuestionType = "numeric"
	TypeDate    QuestionType = "date"
)

// QuestionStatus tracks the moderation lifecycle. Questions are created as
// drafts and only appear in the public feed once approved.
type QuestionStatus string

const (
	StatusDraft    QuestionStatus = "draft"
	StatusApproved QuestionStatus = "approved"
)

// Question is a poll definition. Options is set iff Type is single;
// Min/Max are set iff Type is rating or numeric.
type Question struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Type      QuestionType   `json:"type"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	Status    QuestionStatus `json:"status"`
	Options   []string       `json:"options,omitempty"`
	Min       int            `json:"min,omitempty"`
	Max       int            `json:"max,omitempty"`
}

// ValueKind tags which member of AnswerValue carries the answer.
type ValueKind string

const (
	KindOption ValueKind = "option"
	KindNumber ValueKind = "number"
	KindDate   ValueKind = "date"
)

// AnswerValue is the tagged union stored for a response. Exactly one of
// Option, Number or Date is meaningful, selected by Kind.
type AnswerValue struct {
	Kind   ValueKind `json:"kind"`
	Option string    `json:"option,omitempty"`
	Number float64   `json:"number,omitempty"`
	Date   time.Time `json:"date,omitempty"`
}

// Response is one user's answer to one question, unique per
// (QuestionID, UserID). Resubmitting overwrites the prior value.
type Response struct {
	QuestionID string      `json:"question_id"`
	UserID     string      `json:"user_id"`
	Value      AnswerValue `json:"value"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// UserContext carries optional profile attributes, merge-updated per user.
// Nil fields are left untouched on save.
type UserContext struct {
	Age  *int    `json:"age,omitempty"`
	City *string `json:"city,omitempty"`
}

// User is an account known to the identity provider adapter.
type User struct {
	ID          string
	Email       string
	DisplayName string
	PassHash    []byte
	CreatedAt   time.Time
}
