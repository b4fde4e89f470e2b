package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/V4T54L/eventbridge/internal/adapter/eventsource"
	"github.com/V4T54L/eventbridge/internal/adapter/pii"
	"github.com/V4T54L/eventbridge/internal/adapter/repository/memory"
	"github.com/V4T54L/eventbridge/internal/domain"
	"github.com/V4T54L/eventbridge/internal/usecase"
)

// countingSink counts lines and checks that sensitive values never reach it.
type countingSink struct {
	lines, diagnostics, leaks atomic.Int64
}

func (s *countingSink) Log(level domain.SinkLevel, err error, message string) {
	if err != nil {
		s.diagnostics.Add(1)
		return
	}
	s.lines.Add(1)
	if strings.Contains(message, "secret-") {
		s.leaks.Add(1)
	}
}

func main() {
	concurrency := flag.Int("c", 10, "Number of concurrent emitters")
	duration := flag.Duration("d", 10*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 100000, "Events per second limit")
	reregister := flag.Duration("reregister", 10*time.Millisecond, "Interval between re-registrations")
	flag.Parse()

	log.Printf("Starting in-process load test")
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := &countingSink{}
	bridge, err := usecase.NewEventBridge(
		eventsource.NewListener(quiet),
		sink,
		pii.NewRegistry(nil, quiet),
		memory.NewSettingsRepository(),
		nil,
		quiet,
	)
	if err != nil {
		log.Fatalf("failed to create bridge: %v", err)
	}
	defer bridge.Dispose()

	src, err := eventsource.New("LoadTest",
		eventsource.EventDescriptor{
			ID:      1,
			Name:    "Work",
			Level:   domain.LevelInformational,
			Message: "work item {0}",
			Fields: []eventsource.FieldDescriptor{
				{Name: "id"},
				{Name: "credential", Sensitive: true},
			},
		},
	)
	if err != nil {
		log.Fatalf("failed to create source: %v", err)
	}
	if err := bridge.EnableEvents(src, domain.LevelInformational); err != nil {
		log.Fatalf("failed to enable events: %v", err)
	}

	var wg sync.WaitGroup
	var emitted, registrations atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(*reregister)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				settings := domain.DefaultSettings(domain.LevelInformational)
				settings.IncludePayload = registrations.Load()%2 == 0
				if err := bridge.EnableEventsWithSettings(src, settings); err != nil {
					log.Printf("re-registration failed: %v", err)
					continue
				}
				registrations.Add(1)
			}
		}
	}()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				if err := src.Write(1, uuid.NewString(), "secret-"+uuid.NewString()); err != nil {
					log.Printf("write failed: %v", err)
					continue
				}
				emitted.Add(1)
			}
		}()
	}

	wg.Wait()

	actualRPS := float64(emitted.Load()) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Events emitted: %d", emitted.Load())
	log.Printf("Lines logged: %d", sink.lines.Load())
	log.Printf("Format failures: %d", sink.diagnostics.Load())
	log.Printf("Re-registrations: %d", registrations.Load())
	log.Printf("Sensitive leaks: %d", sink.leaks.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
