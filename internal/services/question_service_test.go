package services

import (
	"testing"
	"time"
)

type stubQuestionStore struct {
	inserted  []*Question
	approved  []*Question
	lastLimit int
	statusSet map[string]QuestionStatus
}

func (s *stubQuestionStore) InsertQuestion(q *Question) error {
	s.inserted = append(s.inserted, q)
	return nil
}

func (s *stubQuestionStore) GetQuestion(id string) (*Question, error) {
	for _, q := range s.inserted {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, nil
}

func (s *stubQuestionStore) ListApprovedQuestions(limit int) ([]*Question, error) {
	s.lastLimit = limit
	return s.approved, nil
}

func (s *stubQuestionStore) SetQuestionStatus(id string, status QuestionStatus) (bool, error) {
	for _, q := range s.inserted {
		if q.ID == id {
			if s.statusSet == nil {
				s.statusSet = map[string]QuestionStatus{}
			}
			s.statusSet[id] = status
			return true, nil
		}
	}
	return false, nil
}

func newTestQuestionService(store *stubQuestionStore) *QuestionService {
	svc := NewQuestionService(store)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "Q1" }
	return svc
}

func intPtr(v int) *int { return &v }

func TestCreateSingleChoice(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	q, err := svc.Create("u1", QuestionDraft{
		Text:    "  Favorite color?  ",
		Type:    TypeSingle,
		Options: []string{" Red ", "Blue", "  "},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if q.ID != "Q1" {
		t.Fatalf("id = %q, want Q1", q.ID)
	}
	if q.Text != "Favorite color?" {
		t.Fatalf("text not trimmed: %q", q.Text)
	}
	if q.Status != StatusDraft {
		t.Fatalf("status = %q, want draft", q.Status)
	}
	if q.CreatedBy != "u1" {
		t.Fatalf("created_by = %q", q.CreatedBy)
	}
	if len(q.Options) != 2 || q.Options[0] != "Red" || q.Options[1] != "Blue" {
		t.Fatalf("options = %v", q.Options)
	}
	if q.Min != 0 || q.Max != 0 {
		t.Fatalf("bounds should be absent for single choice, got %d..%d", q.Min, q.Max)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
}

func TestCreateRequiresText(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	_, err := svc.Create("u1", QuestionDraft{Text: "   ", Type: TypeDate})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("validation failure must not write, inserted=%d", len(store.inserted))
	}
}

func TestCreateSingleChoiceRequiresOptions(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	_, err := svc.Create("u1", QuestionDraft{Text: "Pick one", Type: TypeSingle})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("validation failure must not write, inserted=%d", len(store.inserted))
	}
}

func TestCreateRatingRequiresBounds(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	_, err := svc.Create("u1", QuestionDraft{Text: "Rate it", Type: TypeRating, Min: intPtr(1)})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error for missing max, got %v", err)
	}

	_, err = svc.Create("u1", QuestionDraft{Text: "Rate it", Type: TypeRating, Min: intPtr(5), Max: intPtr(1)})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error for inverted bounds, got %v", err)
	}

	if len(store.inserted) != 0 {
		t.Fatalf("validation failures must not write, inserted=%d", len(store.inserted))
	}
}

func TestCreateNumericKeepsBounds(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	q, err := svc.Create("u1", QuestionDraft{Text: "How many?", Type: TypeNumeric, Min: intPtr(0), Max: intPtr(100)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if q.Min != 0 || q.Max != 100 {
		t.Fatalf("bounds = %d..%d, want 0..100", q.Min, q.Max)
	}
	if q.Options != nil {
		t.Fatalf("options should be absent for numeric, got %v", q.Options)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := newTestQuestionService(&stubQuestionStore{})

	_, err := svc.Create("u1", QuestionDraft{Text: "???", Type: QuestionType("ranked")})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc := newTestQuestionService(&stubQuestionStore{})

	_, err := svc.Create("", QuestionDraft{Text: "Anon?", Type: TypeDate})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestListApprovedDefaultLimit(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	if _, err := svc.ListApproved(0); err != nil {
		t.Fatalf("ListApproved error: %v", err)
	}
	if store.lastLimit != DefaultFeedLimit {
		t.Fatalf("limit = %d, want %d", store.lastLimit, DefaultFeedLimit)
	}

	if _, err := svc.ListApproved(10); err != nil {
		t.Fatalf("ListApproved error: %v", err)
	}
	if store.lastLimit != 10 {
		t.Fatalf("limit = %d, want 10", store.lastLimit)
	}
}

func TestGetQuestion(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	if _, err := svc.Create("u1", QuestionDraft{Text: "When?", Type: TypeDate}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	q, err := svc.Get("Q1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if q.Text != "When?" {
		t.Fatalf("text = %q", q.Text)
	}

	_, err = svc.Get("missing")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestApproveMissingQuestion(t *testing.T) {
	svc := newTestQuestionService(&stubQuestionStore{})

	err := svc.Approve("nope")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestApproveSetsStatus(t *testing.T) {
	store := &stubQuestionStore{}
	svc := newTestQuestionService(store)

	if _, err := svc.Create("u1", QuestionDraft{Text: "When?", Type: TypeDate}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := svc.Approve("Q1"); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if store.statusSet["Q1"] != StatusApproved {
		t.Fatalf("status not set to approved: %v", store.statusSet)
	}
}
