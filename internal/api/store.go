package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/vibeshq/vibes/internal/services"
)

type memoryStore struct {
	mu           sync.RWMutex
	questions    map[string]*services.Question
	responses    map[string]map[string]*services.Response // questionID -> userID
	contexts     map[string]*services.UserContext
	onboarded    map[string]bool
	usersByEmail map[string]*services.User
}

// NewMemoryStore returns an in-process Store used by tests and by the
// server when no durable backend is configured.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		questions:    map[string]*services.Question{},
		responses:    map[string]map[string]*services.Response{},
		contexts:     map[string]*services.UserContext{},
		onboarded:    map[string]bool{},
		usersByEmail: map[string]*services.User{},
	}
}

func (s *memoryStore) InsertQuestion(q *services.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *memoryStore) GetQuestion(id string) (*services.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (s *memoryStore) ListApprovedQuestions(limit int) ([]*services.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.Status == services.StatusApproved {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) SetQuestionStatus(id string, status services.QuestionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return false, nil
	}
	q.Status = status
	return true, nil
}

func (s *memoryStore) UpsertResponse(r *services.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.responses[r.QuestionID]
	if !ok {
		byUser = map[string]*services.Response{}
		s.responses[r.QuestionID] = byUser
	}
	cp := *r
	byUser[r.UserID] = &cp
	return nil
}

func (s *memoryStore) HasResponse(questionID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.responses[questionID][userID]
	return ok, nil
}

func (s *memoryStore) ListResponses(questionID string) ([]*services.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byUser := s.responses[questionID]
	out := make([]*services.Response, 0, len(byUser))
	for _, r := range byUser {
		cp := *r
		out = append(out, &cp)
	}
	// map iteration order is fine: callers treat the listing as unordered
	return out, nil
}

func (s *memoryStore) MergeContext(userID string, ctx *services.UserContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.contexts[userID]
	if !ok {
		cur = &services.UserContext{}
		s.contexts[userID] = cur
	}
	if ctx.Age != nil {
		age := *ctx.Age
		cur.Age = &age
	}
	if ctx.City != nil {
		city := *ctx.City
		cur.City = &city
	}
	return nil
}

func (s *memoryStore) GetContext(userID string) (*services.UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.contexts[userID]
	if !ok {
		return nil, nil
	}
	cp := services.UserContext{}
	if cur.Age != nil {
		age := *cur.Age
		cp.Age = &age
	}
	if cur.City != nil {
		city := *cur.City
		cp.City = &city
	}
	return &cp, nil
}

func (s *memoryStore) SetOnboardingDone(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onboarded[userID] = true
	return nil
}

func (s *memoryStore) OnboardingDone(userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onboarded[userID], nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usersByEmail[strings.ToLower(u.Email)] = &cp
	return nil
}
