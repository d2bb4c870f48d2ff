package progress

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestRecordConcurrent(t *testing.T) {
	var mu sync.Mutex
	var reported []int
	tr := New(10, func(done int) {
		mu.Lock()
		reported = append(reported, done)
		mu.Unlock()
	})

	const workers = 16
	const perWorker = 125
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tr.Record()
			}
		}()
	}
	wg.Wait()

	if got := tr.Count(); got != workers*perWorker {
		t.Fatalf("Count = %d, want %d", got, workers*perWorker)
	}

	sort.Ints(reported)
	if len(reported) != workers*perWorker/10 {
		t.Fatalf("got %d reports, want %d", len(reported), workers*perWorker/10)
	}
	for i, v := range reported {
		if v != (i+1)*10 {
			t.Fatalf("report %d = %d, want %d", i, v, (i+1)*10)
		}
	}
}

func TestRecordReportsOnMultiplesOnly(t *testing.T) {
	var reported []int
	tr := New(0, func(done int) { reported = append(reported, done) })
	for i := 0; i < 25; i++ {
		tr.Record()
	}
	if len(reported) != 2 || reported[0] != 10 || reported[1] != 20 {
		t.Fatalf("reports = %v, want [10 20]", reported)
	}
}

func TestRecordReturnsTotal(t *testing.T) {
	tr := New(3)
	for i := 1; i <= 5; i++ {
		if got := tr.Record(); got != i {
			t.Fatalf("Record #%d returned %d", i, got)
		}
	}
}

func TestLogReportWritesToGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("run_id", "r1").Logger()
	tr := New(2, LogReport(&l, 4))
	for i := 0; i < 4; i++ {
		tr.Record()
	}
	out := buf.String()
	if strings.Count(out, `"run_id":"r1"`) != 2 || !strings.Contains(out, `"pages_done":4`) {
		t.Fatalf("unexpected report lines: %q", out)
	}
}
