package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-raffle-images/pkg/models"
)

// EditorEvent is emitted by an image collection editor
type EditorEvent struct {
	EventType EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Operation string                 `json:"operation"`
	Images    []models.ImageRecord   `json:"images,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of editor event
type EventType string

const (
	// ImagesPublished carries the collection that replaces the bound form value
	ImagesPublished EventType = "images_published"
	// OperationFailed carries the message shown to the user
	OperationFailed EventType = "operation_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event EditorEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event EditorEvent)
}

// LoggingObserver logs editor events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles editor events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event EditorEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"operation":   event.Operation,
		"image_count": len(event.Images),
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ImagesPublished:
		o.logger.WithFields(fields).Debug("Image collection published")
	case OperationFailed:
		fields["error"] = event.Message
		o.logger.WithFields(fields).Warn("Image operation failed")
	default:
		o.logger.WithFields(fields).Info("Editor event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// FormValue keeps the most recently published collection, standing in for
// the form control the editor is bound to
type FormValue struct {
	mu        sync.RWMutex
	images    []models.ImageRecord
	published int
}

// NewFormValue creates an empty form value
func NewFormValue() *FormValue {
	return &FormValue{}
}

// OnEvent stores published collections
func (f *FormValue) OnEvent(ctx context.Context, event EditorEvent) {
	if event.EventType != ImagesPublished {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append([]models.ImageRecord(nil), event.Images...)
	f.published++
}

// GetObserverName returns the observer name
func (f *FormValue) GetObserverName() string {
	return "form_value"
}

// Images returns the current form value
func (f *FormValue) Images() []models.ImageRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.ImageRecord(nil), f.images...)
}

// Publications returns how many times a collection was published
func (f *FormValue) Publications() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.published
}

// MetricsObserver counts editor outcomes per operation
type MetricsObserver struct {
	mu        sync.RWMutex
	published map[string]int64
	failed    map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		published: make(map[string]int64),
		failed:    make(map[string]int64),
	}
}

// OnEvent handles editor events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event EditorEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ImagesPublished:
		o.published[event.Operation]++
	case OperationFailed:
		o.failed[event.Operation]++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	published := make(map[string]int64, len(o.published))
	var totalPublished int64
	for k, v := range o.published {
		published[k] = v
		totalPublished += v
	}
	failed := make(map[string]int64, len(o.failed))
	var totalFailed int64
	for k, v := range o.failed {
		failed[k] = v
		totalFailed += v
	}

	return map[string]interface{}{
		"total_published": totalPublished,
		"total_failed":    totalFailed,
		"published":       published,
		"failed":          failed,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers an event to every observer in subscription order.
// Delivery is synchronous: when it returns, every observer has seen the event.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event EditorEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event EditorEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
