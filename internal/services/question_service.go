package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultFeedLimit bounds the approved-question feed when the caller does
// not ask for a specific page size.
const DefaultFeedLimit = 50

type QuestionStore interface {
	InsertQuestion(q *Question) error
	GetQuestion(id string) (*Question, error)
	ListApprovedQuestions(limit int) ([]*Question, error)
	SetQuestionStatus(id string, status QuestionStatus) (bool, error)
}

// QuestionDraft is the caller-supplied part of a question. Min and Max are
// pointers so that missing bounds are distinguishable from zero.
type QuestionDraft struct {
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
	Min     *int         `json:"min,omitempty"`
	Max     *int         `json:"max,omitempty"`
}

type QuestionService struct {
	store QuestionStore
	now   func() time.Time
	idGen func() string
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Create validates the draft and persists it with status draft. Validation
// failures surface before any store write. The creator identity is passed
// explicitly; there is no ambient current user.
func (s *QuestionService) Create(creatorID string, draft QuestionDraft) (*Question, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, NewUnauthorizedError("sign in to create questions")
	}
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return nil, NewInvalidError("question text is required")
	}

	q := &Question{
		ID:        s.idGen(),
		Text:      text,
		Type:      draft.Type,
		CreatedBy: creatorID,
		CreatedAt: s.now(),
		Status:    StatusDraft,
	}

	switch draft.Type {
	case TypeSingle:
		opts := make([]string, 0, len(draft.Options))
		for _, o := range draft.Options {
			if t := strings.TrimSpace(o); t != "" {
				opts = append(opts, t)
			}
		}
		if len(opts) == 0 {
			return nil, NewInvalidError("options are required for single choice questions")
		}
		q.Options = opts
	case TypeRating, TypeNumeric:
		if draft.Min == nil || draft.Max == nil {
			return nil, NewInvalidError("min and max values are required for rating/numeric questions")
		}
		if *draft.Min >= *draft.Max {
			return nil, NewInvalidError("max value must exceed min")
		}
		q.Min = *draft.Min
		q.Max = *draft.Max
	case TypeDate:
		// no extra fields
	default:
		return nil, NewInvalidError("unknown question type")
	}

	if err := s.store.InsertQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListApproved returns the public feed: approved questions ordered by
// creation time descending, truncated to limit (DefaultFeedLimit when the
// caller passes a non-positive value). No pagination cursor.
func (s *QuestionService) ListApproved(limit int) ([]*Question, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return s.store.ListApprovedQuestions(limit)
}

func (s *QuestionService) Get(id string) (*Question, error) {
	q, err := s.store.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	return q, nil
}

// Approve flips a draft question into the public feed. Called by the
// moderation process, which lives outside this package.
func (s *QuestionService) Approve(id string) error {
	ok, err := s.store.SetQuestionStatus(id, StatusApproved)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("question not found")
	}
	return nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
