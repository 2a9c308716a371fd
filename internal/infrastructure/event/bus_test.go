package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), uuid.New()),
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) handledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("CustomerConverted")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("CustomerConverted")))
	assert.Equal(t, 1, handler.handledCount())

	// unrelated event type is not delivered
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InstallmentPaid")))
	assert.Equal(t, 1, handler.handledCount())
}

func TestInMemoryEventBus_Publish_MultipleHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	h1 := newTestHandler("InstallmentPaid")
	h2 := newTestHandler("InstallmentPaid")
	bus.Subscribe(h1)
	bus.Subscribe(h2)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InstallmentPaid")))
	assert.Equal(t, 1, h1.handledCount())
	assert.Equal(t, 1, h2.handledCount())
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("CustomerConverted"), newTestEvent("InstallmentOverdue")))
	assert.Equal(t, 2, wildcard.handledCount())
}

func TestInMemoryEventBus_Publish_HandlerFailureDoesNotPropagate(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("StudentEnrolled")
	failing.err = errors.New("downstream unavailable")
	healthy := newTestHandler("StudentEnrolled")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("StudentEnrolled"))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.handledCount())
}

func TestInMemoryEventBus_Publish_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	panicking := newTestHandler("StudentEnrolled")
	panicking.panics = true
	healthy := newTestHandler("StudentEnrolled")
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("StudentEnrolled"))
	})
	assert.Equal(t, 1, healthy.handledCount())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("CustomerConverted")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("CustomerConverted"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("CustomerConverted"))

	assert.Equal(t, 1, handler.handledCount())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
}
