package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Status is the published state of one run.
type Status struct {
	Status      string                 `json:"status"`
	PagesDone   int                    `json:"pages_done"`
	PagesFailed int                    `json:"pages_failed"`
	PagesTotal  int                    `json:"pages_total"`
	Message     string                 `json:"message"`
	Start       *time.Time             `json:"start_time,omitempty"`
	End         *time.Time             `json:"end_time,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// RedisStatus keeps run status hashes in Redis.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

// NewRedisStatus connects to redisURL. Status hashes expire after ttl
// (no expiry when ttl <= 0).
func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return openStatus(redis.NewClient(opt), ttl)
}

// openStatus takes ownership of c: it is closed when the ping fails.
func openStatus(c *redis.Client, ttl time.Duration) (*RedisStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStatus{client: c, keyNS: "wordtiles:run", ttl: ttl}, nil
}

func (s *RedisStatus) key(runID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, runID) }

// Set writes the fields of st into the run's hash.
func (s *RedisStatus) Set(ctx context.Context, runID string, st Status) error {
	m := map[string]interface{}{
		"status":       st.Status,
		"pages_done":   st.PagesDone,
		"pages_failed": st.PagesFailed,
		"pages_total":  st.PagesTotal,
		"message":      st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Metadata != nil {
		b, _ := json.Marshal(st.Metadata)
		m["metadata"] = string(b)
	}

	k := s.key(runID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, m)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Progress updates only the completion counters of a run.
func (s *RedisStatus) Progress(ctx context.Context, runID string, done, failed int) error {
	return s.client.HSet(ctx, s.key(runID), "pages_done", done, "pages_failed", failed).Err()
}

// Get reads a run's status. The bool is false when the run is unknown.
func (s *RedisStatus) Get(ctx context.Context, runID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(runID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	return parseStatus(res), true, nil
}

func parseStatus(res map[string]string) Status {
	st := Status{Status: res["status"], Message: res["message"]}
	fmt.Sscan(res["pages_done"], &st.PagesDone)
	fmt.Sscan(res["pages_failed"], &st.PagesFailed)
	fmt.Sscan(res["pages_total"], &st.PagesTotal)
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["metadata"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Metadata)
	}
	return st
}

// Ping checks the connection.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }
