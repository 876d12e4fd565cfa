package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vibeshq/vibes/internal/middleware"
	"github.com/vibeshq/vibes/internal/services"
)

// Router wires the domain services to a plain http.ServeMux. Handlers stay
// thin: decode, call the service with the explicit caller identity, map the
// error code, encode.
type Router struct {
	store     Store
	auth      *services.AuthService
	questions *services.QuestionService
	responses *services.ResponseService
	contexts  *services.ContextService
}

func NewRouter(store Store) *Router {
	return NewRouterWithResponseStore(store, store)
}

// NewRouterWithResponseStore lets the response repository run on a
// different backend (e.g. Redis) than the rest of the store.
func NewRouterWithResponseStore(store Store, responses services.ResponseStore) *Router {
	return &Router{
		store:     store,
		auth:      services.NewAuthService(store, services.TokenSigner(middleware.SignToken)),
		questions: services.NewQuestionService(store),
		responses: services.NewResponseService(responses),
		contexts:  services.NewContextService(store),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/questions", rt.handleQuestions)    // POST create, GET approved feed
	mux.HandleFunc("/api/questions/", rt.handleQuestionScoped)
	mux.HandleFunc("/api/context", rt.handleContext)               // GET, POST merge
	mux.HandleFunc("/api/context/onboarding", rt.handleOnboarding) // GET, POST
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": se.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "user_id": res.UserID})
}

// POST /api/questions — create (auth required)
// GET  /api/questions?limit=n — approved feed
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		uid, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, services.NewUnauthorizedError("sign in to create questions"))
			return
		}
		var draft services.QuestionDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := rt.questions.Create(uid, draft)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		qs, err := rt.questions.ListApproved(limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/questions/{id}/responses  POST submit
// /api/questions/{id}/results    GET aggregate summary
// /api/questions/{id}/answered   GET per-user answered flag
// /api/questions/{id}/approve    POST moderation hook
func (rt *Router) handleQuestionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch parts[1] {
	case "responses":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rt.handleSubmit(w, r, id)
	case "results":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sum, err := rt.responses.Results(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	case "answered":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, _ := middleware.UserIDFromContext(r.Context())
		answered, err := rt.responses.HasAnswered(id, uid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"answered": answered})
	case "approve":
		// any signed-in account may approve; moderation roles are not
		// modelled, the trust boundary is the deployment's own process
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
			writeError(w, services.NewUnauthorizedError("sign in first"))
			return
		}
		if err := rt.questions.Approve(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request, questionID string) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("sign in to answer questions"))
		return
	}
	var req struct {
		Option *string  `json:"option"`
		Number *float64 `json:"number"`
		Date   *string  `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var value services.AnswerValue
	switch {
	case req.Option != nil:
		value = services.AnswerValue{Kind: services.KindOption, Option: *req.Option}
	case req.Number != nil:
		value = services.AnswerValue{Kind: services.KindNumber, Number: *req.Number}
	case req.Date != nil:
		d, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, services.NewInvalidError("date must be YYYY-MM-DD or RFC 3339"))
			return
		}
		value = services.AnswerValue{Kind: services.KindDate, Date: d}
	default:
		writeError(w, services.NewInvalidError("an answer value is required"))
		return
	}
	resp, err := rt.responses.Submit(questionID, uid, value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET  /api/context — the caller's saved context
// POST /api/context — merge-update age/city
func (rt *Router) handleContext(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("sign in first"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		ctx, err := rt.contexts.GetContext(uid)
		if err != nil {
			writeError(w, err)
			return
		}
		if ctx == nil {
			ctx = &services.UserContext{}
		}
		writeJSON(w, http.StatusOK, ctx)
	case http.MethodPost, http.MethodPut:
		var ctx services.UserContext
		if err := json.NewDecoder(r.Body).Decode(&ctx); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rt.contexts.SaveContext(uid, &ctx); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET/POST /api/context/onboarding
func (rt *Router) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("sign in first"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		done, err := rt.contexts.OnboardingDone(uid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"done": done})
	case http.MethodPost:
		if err := rt.contexts.MarkOnboardingDone(uid); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}
