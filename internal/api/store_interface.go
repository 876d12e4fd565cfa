package api

import "github.com/vibeshq/vibes/internal/services"

// Store is the document-store boundary the services persist through. The
// memory store backs tests and dev; internal/db carries the durable
// implementations.
type Store interface {
	InsertQuestion(q *services.Question) error
	GetQuestion(id string) (*services.Question, error)
	ListApprovedQuestions(limit int) ([]*services.Question, error)
	SetQuestionStatus(id string, status services.QuestionStatus) (bool, error)

	UpsertResponse(r *services.Response) error
	HasResponse(questionID, userID string) (bool, error)
	ListResponses(questionID string) ([]*services.Response, error)

	MergeContext(userID string, ctx *services.UserContext) error
	GetContext(userID string) (*services.UserContext, error)
	SetOnboardingDone(userID string) error
	OnboardingDone(userID string) (bool, error)

	FindUserByEmail(email string) (*services.User, error)
	AddUser(u *services.User) error
}

var _ Store = (*memoryStore)(nil)
