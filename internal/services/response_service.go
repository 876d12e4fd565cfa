package services

import "time"

type ResponseStore interface {
	GetQuestion(id string) (*Question, error)
	UpsertResponse(r *Response) error
	HasResponse(questionID, userID string) (bool, error)
	ListResponses(questionID string) ([]*Response, error)
}

// ResponseService records at most one response per (question, user) pair.
// Submitting again overwrites the previous value; the store's upsert is the
// single source of truth for that uniqueness, so concurrent submissions
// from the same user resolve to last-write-wins without client locking.
type ResponseService struct {
	store ResponseStore
	now   func() time.Time
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates the value against the parent question's declared type
// and constraints, then upserts the response keyed by (questionID, userID).
func (s *ResponseService) Submit(questionID, userID string, value AnswerValue) (*Response, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("sign in to answer questions")
	}
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	if err := validateValue(q, value); err != nil {
		return nil, err
	}
	r := &Response{
		QuestionID: questionID,
		UserID:     userID,
		Value:      value,
		AnsweredAt: s.now(),
	}
	if err := s.store.UpsertResponse(r); err != nil {
		return nil, err
	}
	return r, nil
}

// HasAnswered reports whether the user already submitted a response for the
// question. Callers use it to gate the answer form vs the results view.
func (s *ResponseService) HasAnswered(questionID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.store.HasResponse(questionID, userID)
}

func (s *ResponseService) ListResponses(questionID string) ([]*Response, error) {
	return s.store.ListResponses(questionID)
}

// Results fetches the question and its full response set and aggregates
// them into a display-ready summary.
func (s *ResponseService) Results(questionID string) (*Summary, error) {
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	responses, err := s.store.ListResponses(questionID)
	if err != nil {
		return nil, err
	}
	sum := Summarize(q, responses)
	return &sum, nil
}

func validateValue(q *Question, v AnswerValue) error {
	switch q.Type {
	case TypeSingle:
		if v.Kind != KindOption {
			return NewInvalidError("a single choice answer must name an option")
		}
		for _, o := range q.Options {
			if o == v.Option {
				return nil
			}
		}
		return NewInvalidError("option is not one of the question's choices")
	case TypeRating, TypeNumeric:
		if v.Kind != KindNumber {
			return NewInvalidError("a numeric answer is required")
		}
		if v.Number < float64(q.Min) || v.Number > float64(q.Max) {
			return NewInvalidError("value is outside the question's bounds")
		}
		return nil
	case TypeDate:
		if v.Kind != KindDate || v.Date.IsZero() {
			return NewInvalidError("a date answer is required")
		}
		return nil
	default:
		return NewInvalidError("unknown question type")
	}
}
