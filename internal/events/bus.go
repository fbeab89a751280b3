package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/reelist/reelist/internal/logger"
)

// EventBus is the publish/subscribe surface used by the modules
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	PublishAsync(event Event) error
	Subscribe(filter EventFilter, subscriber string, handler EventHandler) (*Subscription, error)
	Unsubscribe(subscriptionID string) error
	GetEvents(filter EventFilter, limit, offset int) ([]Event, int64, error)
	GetStats() EventStats
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventStorage persists events
type EventStorage interface {
	Store(ctx context.Context, event Event) error
	Get(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int64, error)
	Count(ctx context.Context) (int64, error)
}

// BusConfig configures the event bus
type BusConfig struct {
	BufferSize        int
	EnablePersistence bool
}

// DefaultBusConfig returns the default bus configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{
		BufferSize:        256,
		EnablePersistence: true,
	}
}

type eventBus struct {
	config  BusConfig
	storage EventStorage

	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventChannel  chan Event
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup

	stats EventStats
}

// NewEventBus creates a new event bus instance
func NewEventBus(config BusConfig, storage EventStorage) EventBus {
	return &eventBus{
		config:        config,
		storage:       storage,
		subscriptions: make(map[string]*Subscription),
		eventChannel:  make(chan Event, config.BufferSize),
		stopCh:        make(chan struct{}),
		stats: EventStats{
			EventsByType:   make(map[string]int64),
			EventsBySource: make(map[string]int64),
		},
	}
}

// Start starts the event bus worker
func (eb *eventBus) Start(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.running {
		return fmt.Errorf("event bus is already running")
	}
	eb.running = true
	eb.stopCh = make(chan struct{})

	eb.wg.Add(1)
	go eb.processEvents(ctx)

	logger.Info("Event bus started (buffer=%d)", eb.config.BufferSize)
	return nil
}

// Stop stops the event bus gracefully
func (eb *eventBus) Stop(ctx context.Context) error {
	eb.mu.Lock()
	if !eb.running {
		eb.mu.Unlock()
		return nil
	}
	eb.running = false
	eb.mu.Unlock()

	// The channel is never closed: a PublishAsync racing the shutdown
	// may still send, and that send must not panic. The worker drains
	// the buffer on stop instead.
	close(eb.stopCh)

	done := make(chan struct{})
	go func() {
		eb.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Event bus stopped")
	case <-ctx.Done():
		logger.Warn("Event bus stop timed out")
	}
	return nil
}

// Publish delivers an event synchronously to storage and subscribers
func (eb *eventBus) Publish(ctx context.Context, event Event) error {
	eb.record(event)
	if eb.config.EnablePersistence && eb.storage != nil {
		if err := eb.storage.Store(ctx, event); err != nil {
			return fmt.Errorf("failed to store event: %w", err)
		}
	}
	eb.dispatch(event)
	return nil
}

// PublishAsync queues an event without blocking the caller. Events are
// dropped with a warning when the buffer is full.
func (eb *eventBus) PublishAsync(event Event) error {
	eb.mu.RLock()
	running := eb.running
	eb.mu.RUnlock()
	if !running {
		return fmt.Errorf("event bus is not running")
	}

	select {
	case eb.eventChannel <- event:
		return nil
	default:
		logger.Warn("Event bus buffer full, dropping event %s", event.Type)
		return fmt.Errorf("event bus buffer full")
	}
}

func (eb *eventBus) processEvents(ctx context.Context) {
	defer eb.wg.Done()
	for {
		select {
		case event := <-eb.eventChannel:
			if err := eb.Publish(ctx, event); err != nil {
				logger.Error("Failed to process event %s: %v", event.Type, err)
			}
		case <-eb.stopCh:
			// Flush events queued before the stop signal.
			for {
				select {
				case event := <-eb.eventChannel:
					if err := eb.Publish(ctx, event); err != nil {
						logger.Error("Failed to process event %s: %v", event.Type, err)
					}
				default:
					return
				}
			}
		}
	}
}

func (eb *eventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := make([]*Subscription, 0, len(eb.subscriptions))
	for _, sub := range eb.subscriptions {
		if MatchesFilter(event, sub.Filter) {
			subs = append(subs, sub)
		}
	}
	eb.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Handler(event); err != nil {
			logger.Error("Event handler %s failed: %v", sub.Subscriber, err)
		}
	}
}

func (eb *eventBus) record(event Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.stats.TotalEvents++
	eb.stats.EventsByType[string(event.Type)]++
	eb.stats.EventsBySource[event.Source]++
}

// Subscribe registers a handler for events matching the filter
func (eb *eventBus) Subscribe(filter EventFilter, subscriber string, handler EventHandler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler must not be nil")
	}
	sub := &Subscription{
		ID:         uuid.NewString(),
		Filter:     filter,
		Handler:    handler,
		Subscriber: subscriber,
	}

	eb.mu.Lock()
	eb.subscriptions[sub.ID] = sub
	eb.stats.ActiveSubscriptions = len(eb.subscriptions)
	eb.mu.Unlock()

	return sub, nil
}

// Unsubscribe removes a subscription
func (eb *eventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if _, ok := eb.subscriptions[subscriptionID]; !ok {
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(eb.subscriptions, subscriptionID)
	eb.stats.ActiveSubscriptions = len(eb.subscriptions)
	return nil
}

// GetEvents returns stored events matching the filter
func (eb *eventBus) GetEvents(filter EventFilter, limit, offset int) ([]Event, int64, error) {
	if eb.storage == nil {
		return nil, 0, fmt.Errorf("event storage is not configured")
	}
	return eb.storage.Get(context.Background(), filter, limit, offset)
}

// GetStats returns event bus statistics
func (eb *eventBus) GetStats() EventStats {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	stats := EventStats{
		TotalEvents:         eb.stats.TotalEvents,
		EventsByType:        make(map[string]int64, len(eb.stats.EventsByType)),
		EventsBySource:      make(map[string]int64, len(eb.stats.EventsBySource)),
		ActiveSubscriptions: eb.stats.ActiveSubscriptions,
	}
	for k, v := range eb.stats.EventsByType {
		stats.EventsByType[k] = v
	}
	for k, v := range eb.stats.EventsBySource {
		stats.EventsBySource[k] = v
	}
	return stats
}

// Global bus wiring, set once at startup

var (
	globalBus EventBus
	globalMu  sync.RWMutex
)

// SetGlobalEventBus registers the system-wide event bus
func SetGlobalEventBus(bus EventBus) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalBus = bus
}

// GetGlobalEventBus returns the system-wide event bus, or nil before startup
func GetGlobalEventBus() EventBus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBus
}
