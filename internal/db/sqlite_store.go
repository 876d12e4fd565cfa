package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vibeshq/vibes/internal/api"
	"github.com/vibeshq/vibes/internal/services"
)

// SQLiteStore is the durable api.Store implementation. Uniqueness of
// (question_id, user_id) lives in the schema; Submit's last-write-wins
// semantics come from the ON CONFLICT upsert.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

// DSN builds the connection string used by the server for a file-backed
// database.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", path)
}

const schema = `
CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('single', 'rating', 'numeric', 'date')),
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'approved')),
    options TEXT,
    min INTEGER,
    max INTEGER
);

CREATE INDEX IF NOT EXISTS idx_questions_status_created ON questions(status, created_at);

CREATE TABLE IF NOT EXISTS responses (
    question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('option', 'number', 'date')),
    option_value TEXT,
    number_value REAL,
    date_value TIMESTAMP,
    answered_at TIMESTAMP NOT NULL,
    PRIMARY KEY (question_id, user_id)
);

CREATE TABLE IF NOT EXISTS contexts (
    user_id TEXT PRIMARY KEY,
    age INTEGER,
    city TEXT,
    onboarding_done INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE COLLATE NOCASE,
    display_name TEXT,
    pass_hash BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`

var _ api.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) InsertQuestion(q *services.Question) error {
	opts, err := encodeOptions(q.Options)
	if err != nil {
		return err
	}
	hasBounds := q.Type == services.TypeRating || q.Type == services.TypeNumeric
	_, err = s.db.Exec(`
		INSERT INTO questions (id, text, type, created_by, created_at, status, options, min, max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.Text, string(q.Type), q.CreatedBy, q.CreatedAt, string(q.Status),
		opts, boundOrNull(hasBounds, q.Min), boundOrNull(hasBounds, q.Max))
	return err
}

func (s *SQLiteStore) GetQuestion(id string) (*services.Question, error) {
	row := s.db.QueryRow(`
		SELECT id, text, type, created_by, created_at, status, options, min, max
		FROM questions WHERE id = ?
	`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

func (s *SQLiteStore) ListApprovedQuestions(limit int) ([]*services.Question, error) {
	rows, err := s.db.Query(`
		SELECT id, text, type, created_by, created_at, status, options, min, max
		FROM questions
		WHERE status = 'approved'
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetQuestionStatus(id string, status services.QuestionStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE questions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) UpsertResponse(r *services.Response) error {
	_, err := s.db.Exec(`
		INSERT INTO responses (question_id, user_id, kind, option_value, number_value, date_value, answered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (question_id, user_id) DO UPDATE SET
			kind = excluded.kind,
			option_value = excluded.option_value,
			number_value = excluded.number_value,
			date_value = excluded.date_value,
			answered_at = excluded.answered_at
	`, r.QuestionID, r.UserID, string(r.Value.Kind),
		optionOrNull(r.Value), numberOrNull(r.Value), dateOrNull(r.Value), r.AnsweredAt)
	return err
}

func (s *SQLiteStore) HasResponse(questionID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM responses WHERE question_id = ? AND user_id = ?
	`, questionID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) ListResponses(questionID string) ([]*services.Response, error) {
	rows, err := s.db.Query(`
		SELECT question_id, user_id, kind, option_value, number_value, date_value, answered_at
		FROM responses WHERE question_id = ?
	`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Response{}
	for rows.Next() {
		var (
			r      services.Response
			kind   string
			option sql.NullString
			number sql.NullFloat64
			date   sql.NullTime
		)
		if err := rows.Scan(&r.QuestionID, &r.UserID, &kind, &option, &number, &date, &r.AnsweredAt); err != nil {
			return nil, err
		}
		r.Value.Kind = services.ValueKind(kind)
		r.Value.Option = option.String
		r.Value.Number = number.Float64
		if date.Valid {
			r.Value.Date = date.Time
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MergeContext(userID string, ctx *services.UserContext) error {
	_, err := s.db.Exec(`
		INSERT INTO contexts (user_id, age, city) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			age = COALESCE(excluded.age, contexts.age),
			city = COALESCE(excluded.city, contexts.city)
	`, userID, nullIntPtr(ctx.Age), nullStringPtr(ctx.City))
	return err
}

func (s *SQLiteStore) GetContext(userID string) (*services.UserContext, error) {
	var (
		age  sql.NullInt64
		city sql.NullString
	)
	err := s.db.QueryRow(`SELECT age, city FROM contexts WHERE user_id = ?`, userID).Scan(&age, &city)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := &services.UserContext{}
	if age.Valid {
		v := int(age.Int64)
		out.Age = &v
	}
	if city.Valid {
		v := city.String
		out.City = &v
	}
	return out, nil
}

func (s *SQLiteStore) SetOnboardingDone(userID string) error {
	_, err := s.db.Exec(`
		INSERT INTO contexts (user_id, onboarding_done) VALUES (?, 1)
		ON CONFLICT (user_id) DO UPDATE SET onboarding_done = 1
	`, userID)
	return err
}

func (s *SQLiteStore) OnboardingDone(userID string) (bool, error) {
	var done int64
	err := s.db.QueryRow(`SELECT onboarding_done FROM contexts WHERE user_id = ?`, userID).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return done != 0, nil
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	var u services.User
	var name sql.NullString
	err := s.db.QueryRow(`
		SELECT id, email, display_name, pass_hash, created_at FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &name, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.DisplayName = name.String
	return &u, nil
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, email, display_name, pass_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, toNullString(u.DisplayName), u.PassHash, u.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*services.Question, error) {
	var (
		q       services.Question
		qtype   string
		status  string
		options sql.NullString
		min     sql.NullInt64
		max     sql.NullInt64
	)
	if err := row.Scan(&q.ID, &q.Text, &qtype, &q.CreatedBy, &q.CreatedAt, &status, &options, &min, &max); err != nil {
		return nil, err
	}
	q.Type = services.QuestionType(qtype)
	q.Status = services.QuestionStatus(status)
	if options.Valid {
		if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %s: %w", q.ID, err)
		}
	}
	q.Min = int(min.Int64)
	q.Max = int(max.Int64)
	return &q, nil
}

func encodeOptions(opts []string) (sql.NullString, error) {
	if len(opts) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func boundOrNull(present bool, v int) sql.NullInt64 {
	if !present {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func optionOrNull(v services.AnswerValue) sql.NullString {
	if v.Kind != services.KindOption {
		return sql.NullString{}
	}
	return sql.NullString{String: v.Option, Valid: true}
}

func numberOrNull(v services.AnswerValue) sql.NullFloat64 {
	if v.Kind != services.KindNumber {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Number, Valid: true}
}

func dateOrNull(v services.AnswerValue) sql.NullTime {
	if v.Kind != services.KindDate {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.Date, Valid: true}
}

func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullStringPtr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
