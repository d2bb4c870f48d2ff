package logger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
)

type axiomEvent = axiom.Event

const (
	axiomBuffer    = 1000
	axiomBatchSize = 200
)

// axiomForwarder is an io.Writer that parses zerolog JSON lines and ships
// them to Axiom in batches. Debug lines are not forwarded. When the buffer is
// full new events are dropped rather than blocking the caller.
type axiomForwarder struct {
	client  *axiom.Client
	dataset string
	service string
	events  chan axiom.Event
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func newAxiomForwarder(token, orgID, dataset, service string, every time.Duration) (*axiomForwarder, error) {
	opts := []axiom.Option{axiom.SetToken(token)}
	if orgID != "" {
		opts = append(opts, axiom.SetOrganizationID(orgID))
	}
	c, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	if every <= 0 {
		every = 10 * time.Second
	}
	f := &axiomForwarder{
		client:  c,
		dataset: dataset,
		service: service,
		events:  make(chan axiom.Event, axiomBuffer),
		done:    make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run(every)
	return f, nil
}

func (f *axiomForwarder) Write(p []byte) (int, error) {
	ev := make(map[string]any)
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]any{"message": string(p), "level": "info"}
	}
	if lvl, _ := ev["level"].(string); lvl == "debug" || lvl == "trace" {
		return len(p), nil
	}
	ev["service"] = f.service
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	select {
	case f.events <- axiom.Event(ev):
	default:
	}
	return len(p), nil
}

func (f *axiomForwarder) run(every time.Duration) {
	defer f.wg.Done()
	tick := time.NewTicker(every)
	defer tick.Stop()

	batch := make([]axiom.Event, 0, axiomBatchSize)
	ship := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, _ = f.client.IngestEvents(ctx, f.dataset, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case <-f.done:
			for {
				select {
				case ev := <-f.events:
					batch = append(batch, ev)
				default:
					ship()
					return
				}
			}
		case <-tick.C:
			ship()
		case ev := <-f.events:
			batch = append(batch, ev)
			if len(batch) >= axiomBatchSize {
				ship()
			}
		}
	}
}

// Close stops the forwarder after shipping what is buffered.
func (f *axiomForwarder) Close() {
	f.once.Do(func() { close(f.done) })
	f.wg.Wait()
}
