// Package events provides NATS event publishing for alerts-service
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"

	"alerts-service/internal/engine"
	"alerts-service/internal/models"
)

// AlertEventPublisher publishes alert events to NATS JetStream so downstream
// channels (email, in-app notification feed) can fan out.
type AlertEventPublisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewAlertEventPublisher creates a new alert event publisher
func NewAlertEventPublisher(natsURL string, logger *logrus.Logger) (*AlertEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "alerts-service-publisher"

	publisher, err := events.NewPublisher(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	// Ensure inventory stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := publisher.EnsureStream(ctx, events.StreamInventory, []string{"inventory.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure inventory stream exists")
	}

	return &AlertEventPublisher{
		publisher: publisher,
		logger:    log.WithField("component", "alert-events"),
	}, nil
}

// PublishAlertRaised publishes an event for a newly created notification.
// Stock alerts map onto the inventory low/out-of-stock event types; expiry
// alerts ride the low-stock type with an expiry message, since stream
// consumers key off AlertLevel and AlertMessage.
func (p *AlertEventPublisher) PublishAlertRaised(ctx context.Context, n models.AlertNotification) error {
	eventType := events.InventoryLowStock
	if n.Kind == engine.KindCriticalStock {
		eventType = events.InventoryOutOfStock
	}
	alertLevel := "warning"
	if n.Severity == engine.SeverityCritical {
		alertLevel = "critical"
	}

	event := events.NewInventoryEvent(eventType, n.TenantID)
	event.Items = []events.InventoryItem{
		{
			ProductID:    n.ProductID.String(),
			Name:         n.SubjectLabel,
			CurrentStock: n.Quantity,
			ReorderPoint: n.ThresholdUsed,
			WarehouseID:  n.BranchID,
		},
	}
	event.AlertLevel = alertLevel
	event.AlertMessage = alertMessage(n)
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"alertId": n.AlertID,
			"kind":    n.Kind,
		}).WithError(err).Error("Failed to publish alert event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"alertId":  n.AlertID,
		"kind":     n.Kind,
		"severity": n.Severity,
	}).Info("Published alert event")
	return nil
}

func alertMessage(n models.AlertNotification) string {
	switch n.Kind {
	case engine.KindCriticalStock:
		return fmt.Sprintf("Critical stock: %s has %d units remaining (threshold: %d)", n.SubjectLabel, n.Quantity, n.ThresholdUsed)
	case engine.KindLowStock:
		return fmt.Sprintf("Low stock: %s has %d units remaining (threshold: %d)", n.SubjectLabel, n.Quantity, n.ThresholdUsed)
	case engine.KindExpired:
		return fmt.Sprintf("Expired batch: %s (%d units)", n.SubjectLabel, n.Quantity)
	default:
		days := 0
		if n.DaysUntilExpiry != nil {
			days = *n.DaysUntilExpiry
		}
		return fmt.Sprintf("Expiring batch: %s expires in %d days (%d units)", n.SubjectLabel, days, n.Quantity)
	}
}

// IsConnected returns true if connected to NATS
func (p *AlertEventPublisher) IsConnected() bool {
	return p.publisher.IsConnected()
}

// Close closes the NATS connection
func (p *AlertEventPublisher) Close() {
	p.publisher.Close()
}
