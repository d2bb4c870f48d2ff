package store

import (
	"context"
	"errors"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

func TestOpenStatusClosesClientWhenPingFails(t *testing.T) {
	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	if _, err := openStatus(c, time.Hour); err == nil {
		t.Fatal("expected ping error")
	}
	if err := c.Ping(context.Background()).Err(); !errors.Is(err, redis.ErrClosed) {
		t.Fatalf("client still open after failed ping: %v", err)
	}
}

func TestNewRedisStatusBadURL(t *testing.T) {
	if _, err := NewRedisStatus("not-a-url", time.Hour); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseStatus(t *testing.T) {
	st := parseStatus(map[string]string{
		"status":       "completed_with_errors",
		"pages_done":   "38",
		"pages_failed": "2",
		"pages_total":  "40",
		"message":      "Successfully processed 38 pages",
		"start":        "2026-10-19T10:00:00Z",
		"end":          "bad time",
		"metadata":     `{"tiles":117}`,
	})
	if st.Status != "completed_with_errors" || st.PagesDone != 38 || st.PagesFailed != 2 || st.PagesTotal != 40 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if st.Start == nil || st.Start.Hour() != 10 {
		t.Fatalf("start = %v", st.Start)
	}
	if st.End != nil {
		t.Fatalf("unparseable end should be nil, got %v", st.End)
	}
	if st.Metadata["tiles"] != float64(117) {
		t.Fatalf("metadata = %v", st.Metadata)
	}
}
