package services

import "strings"

type ContextStore interface {
	MergeContext(userID string, ctx *UserContext) error
	GetContext(userID string) (*UserContext, error)
	SetOnboardingDone(userID string) error
	OnboardingDone(userID string) (bool, error)
}

// ContextService manages the optional profile attributes collected during
// onboarding. Saves are merge-updates: fields left nil keep their stored
// value. Context data is independent of polling data.
type ContextService struct {
	store ContextStore
}

func NewContextService(store ContextStore) *ContextService {
	return &ContextService{store: store}
}

func (s *ContextService) SaveContext(userID string, ctx *UserContext) error {
	if userID == "" {
		return NewUnauthorizedError("sign in to save your context")
	}
	if ctx == nil {
		return NewInvalidError("context payload required")
	}
	if ctx.Age != nil && (*ctx.Age < 0 || *ctx.Age > 120) {
		return NewInvalidError("age must be between 0 and 120")
	}
	if ctx.City != nil {
		trimmed := strings.TrimSpace(*ctx.City)
		ctx.City = &trimmed
	}
	return s.store.MergeContext(userID, ctx)
}

func (s *ContextService) GetContext(userID string) (*UserContext, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("sign in to load your context")
	}
	return s.store.GetContext(userID)
}

func (s *ContextService) MarkOnboardingDone(userID string) error {
	if userID == "" {
		return NewUnauthorizedError("sign in first")
	}
	return s.store.SetOnboardingDone(userID)
}

func (s *ContextService) OnboardingDone(userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.store.OnboardingDone(userID)
}
