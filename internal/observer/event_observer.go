package observer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// AnalysisEvent represents an analysis lifecycle event
type AnalysisEvent struct {
	ID             string                 `json:"id"`
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	MediaType      models.MediaType       `json:"media_type"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent stamps an event with a fresh ID and the current time
func NewEvent(eventType EventType, mediaType models.MediaType, source string) AnalysisEvent {
	return AnalysisEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now(),
		MediaType: mediaType,
		Source:    source,
		Success:   eventType != AnalysisFailed && eventType != MediaFetchFailed,
	}
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis finishes successfully
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when analysis fails
	AnalysisFailed EventType = "analysis_failed"
	// MediaFetched when media bytes are successfully fetched
	MediaFetched EventType = "media_fetched"
	// MediaFetchFailed when a fetch fails
	MediaFetchFailed EventType = "media_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_id":           event.ID,
		"event_type":         event.EventType,
		"media_type":         event.MediaType,
		"source":             event.Source,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Media analysis started")
	case AnalysisCompleted:
		entry.Info("Media analysis completed")
	case AnalysisFailed:
		entry.Error("Media analysis failed")
	case MediaFetched:
		entry.Debug("Media fetched successfully")
	case MediaFetchFailed:
		entry.Error("Media fetch failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

type typeCounters struct {
	total, successful, failed int64
	processingTime            time.Duration
}

// MetricsObserver collects per-media-type counters from analysis events
type MetricsObserver struct {
	mu            sync.RWMutex
	byType        map[models.MediaType]*typeCounters
	fetchFailures int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{byType: make(map[models.MediaType]*typeCounters)}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.byType[event.MediaType]
	if !ok {
		c = &typeCounters{}
		o.byType[event.MediaType] = c
	}

	switch event.EventType {
	case AnalysisStarted:
		c.total++
	case AnalysisCompleted:
		c.successful++
		c.processingTime += event.ProcessingTime
	case AnalysisFailed:
		c.failed++
	case MediaFetchFailed:
		o.fetchFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters keyed by media type
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var all typeCounters
	perType := make(map[string]interface{}, len(o.byType))
	for mediaType, c := range o.byType {
		perType[string(mediaType)] = counterSummary(c)
		all.total += c.total
		all.successful += c.successful
		all.failed += c.failed
		all.processingTime += c.processingTime
	}

	metrics := counterSummary(&all)
	metrics["fetch_failures"] = o.fetchFailures
	metrics["by_media_type"] = perType
	return metrics
}

func counterSummary(c *typeCounters) map[string]interface{} {
	avg := time.Duration(0)
	if c.successful > 0 {
		avg = c.processingTime / time.Duration(c.successful)
	}
	return map[string]interface{}{
		"total_analyses":         c.total,
		"successful_analyses":    c.successful,
		"failed_analyses":        c.failed,
		"total_processing_ms":    c.processingTime.Milliseconds(),
		"avg_processing_time_ms": avg.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
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

// NotifyObservers delivers event to every observer concurrently
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"observer": obs.GetObserverName(),
						"panic":    r,
					}).Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every delivery started so far has returned
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
