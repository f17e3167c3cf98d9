package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/observability"
	"partner-edge/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout bounds a whole fan-out pass.
	DefaultTimeout = 10 * time.Second

	defaultParallelism = 8
)

// Sender delivers a notification to a single device.
type Sender interface {
	Send(ctx context.Context, deviceToken string, n domain.Notification) error
}

// Dispatcher fans a notification out to every device of an organization.
// A failing device never stops delivery to the others.
type Dispatcher struct {
	devices ports.DeviceRegistry
	sender  Sender
	metrics *observability.Metrics
	logger  zerolog.Logger
	timeout time.Duration
	limit   int
}

var _ ports.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(devices ports.DeviceRegistry, sender Sender, metrics *observability.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		devices: devices,
		sender:  sender,
		metrics: metrics,
		logger:  logger,
		timeout: DefaultTimeout,
		limit:   defaultParallelism,
	}
}

// NotifyOrganization sends n to all registered devices and returns the joined per-device failures.
func (d *Dispatcher) NotifyOrganization(ctx context.Context, organizationID string, n domain.Notification) error {
	tokens, err := d.devices.List(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	if len(tokens) == 0 {
		d.logger.Debug().Str("organizationId", organizationID).Msg("No devices registered, skipping notification")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		failures []error
		g        errgroup.Group
	)
	g.SetLimit(d.limit)

	for _, token := range tokens {
		g.Go(func() error {
			err := d.sender.Send(ctx, token, n)
			switch {
			case err == nil:
				d.metrics.Notification("sent")
				return nil
			case errors.Is(err, ErrUnregistered):
				d.metrics.Notification("unregistered")
				if rmErr := d.devices.Remove(context.WithoutCancel(ctx), organizationID, token); rmErr != nil {
					d.logger.Warn().Err(rmErr).Str("organizationId", organizationID).Msg("Failed to remove stale device")
				}
			default:
				d.metrics.Notification("failed")
			}
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info().
		Str("organizationId", organizationID).
		Str("type", n.Type).
		Int("devices", len(tokens)).
		Int("failed", len(failures)).
		Msg("Notification dispatched")

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d notifications failed: %w", len(failures), len(tokens), errors.Join(failures...))
	}
	return nil
}
