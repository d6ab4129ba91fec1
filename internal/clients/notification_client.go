package clients

import (
	"context"
	"net/http"
	"sync"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const notificationServiceName = "notification"

// NotificationSender delivers notifications through the external notification API.
type NotificationSender interface {
	Send(ctx context.Context, notification *models.Notification) error
}

// Ensure HTTPNotificationClient implements NotificationSender
var _ NotificationSender = (*HTTPNotificationClient)(nil)

// HTTPNotificationClient implements NotificationSender using HTTP.
type HTTPNotificationClient struct {
	baseClient
	logger *logging.LoggerV2
}

// NewHTTPNotificationClient creates a new HTTP-based notification client.
func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseClient: newBaseClient(notificationServiceName, cfg),
		logger:     logger,
	}
}

// Send posts a notification to the external API.
func (c *HTTPNotificationClient) Send(ctx context.Context, notification *models.Notification) error {
	c.logger.Debug("Sending notification", logging.Fields{
		"user_id": notification.UserID,
		"kind":    notification.Kind,
	})

	req, err := c.newRequest(ctx, http.MethodPost, "/api/notifications", notification)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send notification", logging.Fields{
			"user_id": notification.UserID,
			"error":   err.Error(),
		})
		return errors.NewUpstreamError(c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return errors.NewUpstreamStatusError(c.service, resp.StatusCode)
	}

	c.logger.Info("Notification sent", logging.Fields{
		"user_id": notification.UserID,
		"kind":    notification.Kind,
	})
	return nil
}

// MockNotificationClient records sent notifications.
type MockNotificationClient struct {
	mu   sync.Mutex
	sent []*models.Notification
	Err  error
}

// NewMockNotificationClient creates a mock notification client.
func NewMockNotificationClient() *MockNotificationClient {
	return &MockNotificationClient{}
}

func (m *MockNotificationClient) Send(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, notification)
	return nil
}

// Sent returns a snapshot of sent notifications.
func (m *MockNotificationClient) Sent() []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
