package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"

	"github.com/vibeshq/vibes/internal/services"
)

// QuestionGetter is the slice of the main store the Redis response backend
// still needs: submit validation reads the parent question.
type QuestionGetter interface {
	GetQuestion(id string) (*services.Question, error)
}

// responseCommands is the slice of the Redis API the response store issues.
type responseCommands interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	TxPipeline() redis.Pipeliner
}

var _ responseCommands = (*redis.Client)(nil)

// RedisResponseStore keeps responses in Redis while questions, users and
// contexts stay in the primary store. One hash per (question, user) at
// response:{questionID}:{userID}; HSET gives the last-write-wins upsert and
// EXISTS the answered check, so no client-side coordination is needed.
type RedisResponseStore struct {
	rdb       responseCommands
	questions QuestionGetter
}

var _ services.ResponseStore = (*RedisResponseStore)(nil)

func NewRedisResponseStore(rdb responseCommands, questions QuestionGetter) *RedisResponseStore {
	return &RedisResponseStore{rdb: rdb, questions: questions}
}

// NewRedisClient connects and pings, failing fast on a bad address.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisResponseStore) GetQuestion(id string) (*services.Question, error) {
	return s.questions.GetQuestion(id)
}

func responseKey(questionID, userID string) string {
	return "response:" + questionID + ":" + userID
}

// responseHash is the flat string form stored in the Redis hash.
type responseHash struct {
	QuestionID string  `mapstructure:"question_id"`
	UserID     string  `mapstructure:"user_id"`
	Kind       string  `mapstructure:"kind"`
	Option     string  `mapstructure:"option"`
	Number     float64 `mapstructure:"number"`
	Date       string  `mapstructure:"date"`
	AnsweredAt string  `mapstructure:"answered_at"`
}

func (s *RedisResponseStore) UpsertResponse(r *services.Response) error {
	ctx := context.Background()
	fields := map[string]any{
		"question_id": r.QuestionID,
		"user_id":     r.UserID,
		"kind":        string(r.Value.Kind),
		"option":      r.Value.Option,
		"number":      r.Value.Number,
		"date":        "",
		"answered_at": r.AnsweredAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Value.Kind == services.KindDate {
		fields["date"] = r.Value.Date.UTC().Format(time.RFC3339Nano)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, responseKey(r.QuestionID, r.UserID))
	pipe.HSet(ctx, responseKey(r.QuestionID, r.UserID), fields)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisResponseStore) HasResponse(questionID, userID string) (bool, error) {
	n, err := s.rdb.Exists(context.Background(), responseKey(questionID, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisResponseStore) ListResponses(questionID string) ([]*services.Response, error) {
	ctx := context.Background()
	var cursor uint64
	out := []*services.Response{}
	pattern := "response:" + questionID + ":*"
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			data, err := s.rdb.HGetAll(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", key, err)
			}
			if len(data) == 0 {
				// key removed between SCAN and HGETALL
				continue
			}
			r, err := decodeResponse(data)
			if err != nil {
				log.Printf("redis store: decode %s: %v", key, err)
				continue
			}
			out = append(out, r)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func decodeResponse(data map[string]string) (*services.Response, error) {
	var h responseHash
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &h,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(data); err != nil {
		return nil, err
	}
	r := &services.Response{
		QuestionID: h.QuestionID,
		UserID:     h.UserID,
		Value: services.AnswerValue{
			Kind:   services.ValueKind(h.Kind),
			Option: h.Option,
			Number: h.Number,
		},
	}
	if h.Date != "" {
		if t, err := time.Parse(time.RFC3339Nano, h.Date); err == nil {
			r.Value.Date = t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, h.AnsweredAt); err == nil {
		r.AnsweredAt = t
	}
	return r, nil
}
