package usecase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/V4T54L/eventbridge/internal/adapter/eventsource"
	"github.com/V4T54L/eventbridge/internal/adapter/metrics"
	"github.com/V4T54L/eventbridge/internal/adapter/pii"
	"github.com/V4T54L/eventbridge/internal/adapter/repository/memory"
	"github.com/V4T54L/eventbridge/internal/domain"
	"github.com/V4T54L/eventbridge/internal/domain/mocks"
)

type bridgeFixture struct {
	bridge   *EventBridge
	listener *mocks.MockEventListener
	sink     *mocks.MockSink
	metrics  *metrics.BridgeMetrics
}

func newBridgeFixture(t *testing.T) *bridgeFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &bridgeFixture{
		listener: &mocks.MockEventListener{},
		sink:     &mocks.MockSink{},
		metrics:  metrics.NewBridgeMetrics(prometheus.NewRegistry()),
	}
	bridge, err := NewEventBridge(f.listener, f.sink, pii.NewRegistry(nil, logger), memory.NewSettingsRepository(), f.metrics, logger)
	if err != nil {
		t.Fatalf("failed to create bridge: %v", err)
	}
	f.bridge = bridge
	return f
}

func (f *bridgeFixture) outcome(name string) float64 {
	return testutil.ToFloat64(f.metrics.EventsTotal.WithLabelValues(name))
}

func ordersSource(c domain.Classification) *mocks.MockEventSource {
	return &mocks.MockEventSource{
		SourceName: "Orders",
		ID:         testSourceID,
		Classifications: []domain.ClassificationEntry{
			{EventID: 1, Index: 0, Name: "orderId", Classification: c},
		},
	}
}

func TestNewEventBridge_RequiresCollaborators(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewEventBridge(nil, &mocks.MockSink{}, pii.NewRegistry(nil, logger), memory.NewSettingsRepository(), nil, logger)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEventBridge_EnableEvents(t *testing.T) {
	t.Run("Nil source", func(t *testing.T) {
		f := newBridgeFixture(t)
		if err := f.bridge.EnableEvents(nil, domain.LevelInformational); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := f.bridge.EnableEventsWithSettings(nil, domain.DefaultSettings(domain.LevelInformational)); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Nil settings", func(t *testing.T) {
		f := newBridgeFixture(t)
		if err := f.bridge.EnableEventsWithSettings(ordersSource(domain.Normal), nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if len(f.listener.Subscriptions) != 0 {
			t.Error("listener should not be subscribed on invalid arguments")
		}
	})

	t.Run("Subscribes at the requested level", func(t *testing.T) {
		f := newBridgeFixture(t)
		if err := f.bridge.EnableEvents(ordersSource(domain.Normal), domain.LevelWarning); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.listener.Subscriptions) != 1 || f.listener.Subscriptions[0].Level != domain.LevelWarning {
			t.Errorf("unexpected subscriptions: %+v", f.listener.Subscriptions)
		}
		settings, ok := f.bridge.settings.Get("orders")
		if !ok || !settings.IncludePayload || settings.Filter != nil || settings.Transform != nil {
			t.Errorf("expected default settings, got %+v", settings)
		}
		if got := testutil.ToFloat64(f.metrics.RegisteredSources); got != 1 {
			t.Errorf("registered sources gauge = %v, want 1", got)
		}
	})

	t.Run("Listener failure", func(t *testing.T) {
		f := newBridgeFixture(t)
		f.listener.EnableErr = domain.ErrUnsupportedSource
		err := f.bridge.EnableEvents(ordersSource(domain.Normal), domain.LevelWarning)
		if !errors.Is(err, domain.ErrUnsupportedSource) {
			t.Errorf("expected ErrUnsupportedSource, got %v", err)
		}
	})
}

func TestEventBridge_Pipeline(t *testing.T) {
	event := ordersEvent(domain.PayloadField{Name: "orderId", Value: 42})

	t.Run("Unregistered source produces no sink call", func(t *testing.T) {
		f := newBridgeFixture(t)
		if err := f.bridge.EnableEvents(ordersSource(domain.Normal), domain.LevelInformational); err != nil {
			t.Fatalf("EnableEvents failed: %v", err)
		}
		other := event
		other.SourceName = "Billing"
		f.listener.Emit(other)

		if calls := f.sink.Snapshot(); len(calls) != 0 {
			t.Errorf("expected 0 sink calls, got %d", len(calls))
		}
		if f.outcome(metrics.OutcomeUnregistered) != 1 {
			t.Error("expected unregistered outcome to be counted")
		}
	})

	t.Run("Filter decides delivery", func(t *testing.T) {
		for _, pass := range []bool{false, true} {
			f := newBridgeFixture(t)
			settings := &domain.SourceSettings{
				MinLevel:       domain.LevelInformational,
				IncludePayload: true,
				Filter:         func(domain.RawEvent) bool { return pass },
			}
			if err := f.bridge.EnableEventsWithSettings(ordersSource(domain.Normal), settings); err != nil {
				t.Fatalf("EnableEvents failed: %v", err)
			}
			f.listener.Emit(event)

			want := 0
			if pass {
				want = 1
			}
			if calls := f.sink.Snapshot(); len(calls) != want {
				t.Errorf("filter=%v: expected %d sink calls, got %d", pass, want, len(calls))
			}
		}
	})

	t.Run("Normal payload", func(t *testing.T) {
		f := newBridgeFixture(t)
		if err := f.bridge.EnableEvents(ordersSource(domain.Normal), domain.LevelInformational); err != nil {
			t.Fatalf("EnableEvents failed: %v", err)
		}
		f.listener.Emit(event)

		calls := f.sink.Snapshot()
		if len(calls) != 1 {
			t.Fatalf("expected 1 sink call, got %d", len(calls))
		}
		if calls[0].Level != domain.SinkInfo {
			t.Errorf("sink level = %v, want info", calls[0].Level)
		}
		for _, s := range []string{"Created:", "@orderId=42"} {
			if !strings.Contains(calls[0].Message, s) {
				t.Errorf("expected message to contain %q, got %q", s, calls[0].Message)
			}
		}
		if f.outcome(metrics.OutcomeForwarded) != 1 {
			t.Error("expected forwarded outcome to be counted")
		}
	})

	t.Run("Sensitive payload", func(t *testing.T) {
		f := newBridgeFixture(t)
		settings := &domain.SourceSettings{
			MinLevel:       domain.LevelInformational,
			IncludePayload: true,
			Transform:      func(name string, value any) any { return value },
		}
		if err := f.bridge.EnableEventsWithSettings(ordersSource(domain.Sensitive), settings); err != nil {
			t.Fatalf("EnableEvents failed: %v", err)
		}
		f.listener.Emit(event)

		calls := f.sink.Snapshot()
		if len(calls) != 1 {
			t.Fatalf("expected 1 sink call, got %d", len(calls))
		}
		if !strings.Contains(calls[0].Message, "@orderId=(Sensitive information omitted)") {
			t.Errorf("expected redacted payload, got %q", calls[0].Message)
		}
		if strings.Contains(calls[0].Message, "42") {
			t.Errorf("sensitive value leaked: %q", calls[0].Message)
		}
		if got := testutil.ToFloat64(f.metrics.RedactedFieldsTotal); got != 1 {
			t.Errorf("redacted fields = %v, want 1", got)
		}
	})

	failing := []struct {
		name     string
		settings *domain.SourceSettings
	}{
		{
			name: "Panicking filter",
			settings: &domain.SourceSettings{
				MinLevel: domain.LevelVerbose,
				Filter: func(e domain.RawEvent) bool {
					panic(fmt.Sprintf("filter failed on %v", e.Payload[0].Value))
				},
			},
		},
		{
			name: "Panicking transform",
			settings: &domain.SourceSettings{
				MinLevel:       domain.LevelVerbose,
				IncludePayload: true,
				Transform:      func(_ string, value any) any { panic(fmt.Errorf("transform failed on %v", value)) },
			},
		},
	}
	for _, tt := range failing {
		t.Run(tt.name, func(t *testing.T) {
			f := newBridgeFixture(t)
			if err := f.bridge.EnableEventsWithSettings(ordersSource(domain.Normal), tt.settings); err != nil {
				t.Fatalf("EnableEvents failed: %v", err)
			}
			warning := event
			warning.Level = domain.LevelWarning
			f.listener.Emit(warning)

			calls := f.sink.Snapshot()
			if len(calls) != 2 {
				t.Fatalf("expected 2 sink calls, got %d", len(calls))
			}
			diag := calls[0]
			if diag.Level != domain.SinkInfo || diag.Message != "failure during log formatting of event: Created" {
				t.Errorf("unexpected diagnostic call: %+v", diag)
			}
			var formatErr *domain.FormatError
			if !errors.As(diag.Err, &formatErr) {
				t.Fatalf("expected diagnostic to carry a FormatError, got %v", diag.Err)
			}
			if strings.Contains(diag.Err.Error(), "42") {
				t.Errorf("diagnostic leaked the payload value: %q", diag.Err.Error())
			}
			record := calls[1]
			if record.Level != domain.SinkWarn || record.Message != "" || record.Err != nil {
				t.Errorf("unexpected record call: %+v", record)
			}
			if f.outcome(metrics.OutcomeFormatError) != 1 {
				t.Error("expected format_error outcome to be counted")
			}
		})
	}
}

func TestEventBridge_Dispose(t *testing.T) {
	f := newBridgeFixture(t)
	if err := f.bridge.EnableEvents(ordersSource(domain.Normal), domain.LevelInformational); err != nil {
		t.Fatalf("EnableEvents failed: %v", err)
	}

	if err := f.bridge.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if err := f.bridge.Dispose(); err != nil {
		t.Fatalf("second Dispose failed: %v", err)
	}
	if f.listener.Closed != 1 {
		t.Errorf("expected listener to be closed once, got %d", f.listener.Closed)
	}
	if _, ok := f.bridge.settings.Get("Orders"); ok {
		t.Error("expected settings to be released")
	}
	if err := f.bridge.EnableEvents(ordersSource(domain.Normal), domain.LevelInformational); !errors.Is(err, ErrBridgeDisposed) {
		t.Errorf("expected ErrBridgeDisposed, got %v", err)
	}

	f.listener.Emit(ordersEvent(domain.PayloadField{Name: "orderId", Value: 1}))
	if calls := f.sink.Snapshot(); len(calls) != 0 {
		t.Errorf("expected no sink calls after dispose, got %d", len(calls))
	}
}

func TestEventBridge_DisposeDuringRegistration(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newBridgeFixture(t)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				<-start
				for i := 0; i < 50; i++ {
					name := fmt.Sprintf("Source-%d-%d", w, i)
					src := &mocks.MockEventSource{
						SourceName: name,
						ID:         eventsource.NewIdentity(name),
						Classifications: []domain.ClassificationEntry{
							{EventID: 1, Index: 0, Name: "token", Classification: domain.Sensitive},
						},
					}
					err := f.bridge.EnableEvents(src, domain.LevelInformational)
					if err != nil && !errors.Is(err, ErrBridgeDisposed) {
						t.Errorf("unexpected error: %v", err)
						return
					}
				}
			}(w)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := f.bridge.Dispose(); err != nil {
				t.Errorf("Dispose failed: %v", err)
			}
		}()
		close(start)
		wg.Wait()

		if n := f.bridge.settings.Len(); n != 0 {
			t.Fatalf("round %d: %d settings survived Dispose", round, n)
		}
		for w := 0; w < 4; w++ {
			for i := 0; i < 50; i++ {
				id := eventsource.NewIdentity(fmt.Sprintf("Source-%d-%d", w, i))
				if c := f.bridge.registry.Classify(id, 1, 0); c != domain.Normal {
					t.Fatalf("round %d: classification of %s survived Dispose", round, id)
				}
			}
		}
	}
}

func TestEventBridge_DisposeReportsListenerError(t *testing.T) {
	f := newBridgeFixture(t)
	f.listener.CloseErr = errors.New("close failed")
	if err := f.bridge.Dispose(); err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func newEchoSource(t *testing.T, sensitive bool) *eventsource.Source {
	t.Helper()
	src, err := eventsource.New("Orders",
		eventsource.EventDescriptor{
			ID: 1, Name: "Created", Level: domain.LevelInformational, Message: "order {0}",
			Fields: []eventsource.FieldDescriptor{{Name: "orderId", Sensitive: sensitive}},
		},
		eventsource.EventDescriptor{ID: 2, Name: "Chatter", Level: domain.LevelVerbose},
	)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}
	return src
}

func newLiveBridge(t *testing.T, sink domain.Sink) *EventBridge {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bridge, err := NewEventBridge(
		eventsource.NewListener(logger),
		sink,
		pii.NewRegistry(nil, logger),
		memory.NewSettingsRepository(),
		metrics.NewBridgeMetrics(prometheus.NewRegistry()),
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create bridge: %v", err)
	}
	t.Cleanup(func() { _ = bridge.Dispose() })
	return bridge
}

func TestEventBridge_EndToEnd(t *testing.T) {
	for _, tt := range []struct {
		name      string
		sensitive bool
		want      string
	}{
		{"Normal", false, "@orderId=42"},
		{"Sensitive", true, "@orderId=(Sensitive information omitted)"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			sink := &mocks.MockSink{}
			bridge := newLiveBridge(t, sink)
			src := newEchoSource(t, tt.sensitive)

			if err := bridge.EnableEvents(src, domain.LevelInformational); err != nil {
				t.Fatalf("EnableEvents failed: %v", err)
			}
			if err := src.Write(1, 42); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := src.Write(2); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			calls := sink.Snapshot()
			if len(calls) != 1 {
				t.Fatalf("expected 1 sink call, got %d", len(calls))
			}
			if calls[0].Level != domain.SinkInfo {
				t.Errorf("sink level = %v, want info", calls[0].Level)
			}
			if !strings.Contains(calls[0].Message, "Created:") || !strings.Contains(calls[0].Message, tt.want) {
				t.Errorf("unexpected message %q", calls[0].Message)
			}
		})
	}
}

func TestEventBridge_VerboseMapsToNone(t *testing.T) {
	sink := &mocks.MockSink{}
	bridge := newLiveBridge(t, sink)
	src := newEchoSource(t, false)

	if err := bridge.EnableEvents(src, domain.LevelLogAlways); err != nil {
		t.Fatalf("EnableEvents failed: %v", err)
	}
	if err := src.Write(2); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	calls := sink.Snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected 1 sink call, got %d", len(calls))
	}
	if calls[0].Level != domain.SinkNone {
		t.Errorf("sink level = %v, want none", calls[0].Level)
	}
}

func TestEventBridge_ConcurrentReRegistration(t *testing.T) {
	sink := &mocks.MockSink{}
	bridge := newLiveBridge(t, sink)
	normal := newEchoSource(t, false)
	sensitive := newEchoSource(t, true)

	if err := bridge.EnableEvents(sensitive, domain.LevelInformational); err != nil {
		t.Fatalf("EnableEvents failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			src := normal
			if i%2 == 1 {
				src = sensitive
			}
			if err := bridge.EnableEvents(src, domain.LevelInformational); err != nil {
				t.Errorf("EnableEvents failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = sensitive.Write(1, 42)
		}
	}()
	wg.Wait()

	for _, call := range sink.Snapshot() {
		if call.Level != domain.SinkInfo {
			t.Errorf("unexpected sink level %v", call.Level)
		}
		redacted := strings.Contains(call.Message, "@orderId=(Sensitive information omitted)")
		plain := strings.Contains(call.Message, "@orderId=42")
		if redacted == plain {
			t.Errorf("message is neither cleanly redacted nor cleanly normal: %q", call.Message)
		}
	}
}
