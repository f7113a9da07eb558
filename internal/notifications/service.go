package notifications

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"atelier/internal/config"
)

const userAgent = "Atelier-Go/0.1.0"

// Event describes one owner notification drained from the outbox.
type Event struct {
	// ID is the outbox entry ID; transports use it to deduplicate redeliveries.
	ID         string
	ItemID     string
	OwnerID    string
	Action     string
	ItemTitle  string
	OccurredAt time.Time
}

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyTransition(ctx context.Context, event Event) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service from the configured transports.
// When neither ntfy nor Kafka is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}

	var services []Service
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		services = append(services, NewNtfyService(topic, cfg.NotificationTimeout()))
	}
	if len(cfg.Notifications.KafkaBrokers) > 0 {
		services = append(services, NewKafkaService(
			newKafkaWriter(cfg.Notifications.KafkaBrokers, cfg.Notifications.KafkaTopic),
		))
	}

	switch len(services) {
	case 0:
		return noopService{}
	case 1:
		return services[0]
	default:
		return multiService(services)
	}
}

// Close releases transport resources held by svc, if any.
func Close(svc Service) error {
	if closer, ok := svc.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// multiService delivers to every transport and reports the combined failure.
// A partial failure makes the outbox retry the whole event, so transports see
// at-least-once delivery keyed by Event.ID.
type multiService []Service

func (m multiService) NotifyTransition(ctx context.Context, event Event) error {
	var errs []error
	for _, svc := range m {
		if err := svc.NotifyTransition(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiService) TestNotification(ctx context.Context) error {
	var errs []error
	for _, svc := range m {
		if err := svc.TestNotification(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiService) Close() error {
	var errs []error
	for _, svc := range m {
		if err := Close(svc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopService struct{}

func (noopService) NotifyTransition(context.Context, Event) error { return nil }
func (noopService) TestNotification(context.Context) error        { return nil }
