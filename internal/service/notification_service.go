package service

import (
	"context"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

const forwardTimeout = 10 * time.Second

// NotificationService stores panel notifications and forwards them to the notification API.
type NotificationService struct {
	repo   repository.NotificationRepository
	sender clients.NotificationSender
	config *config.Config
	logger *logging.LoggerV2
	wg     sync.WaitGroup
}

// NewNotificationService creates a new notification service. sender may be nil.
func NewNotificationService(repo repository.NotificationRepository, sender clients.NotificationSender, cfg *config.Config) *NotificationService {
	return &NotificationService{
		repo:   repo,
		sender: sender,
		config: cfg,
		logger: logging.NewLoggerV2("notification-service"),
	}
}

// Notify stores n and forwards it in the background. Failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	if !s.config.Features.EnableNotifications || n.UserID == "" {
		return
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to store notification", logging.Fields{
			"user_id": n.UserID,
			"kind":    n.Kind,
			"error":   err.Error(),
		})
		return
	}

	if s.sender == nil {
		return
	}

	// The request context ends with the response; forwarding outlives it.
	fwdCtx := requestctx.WithRequestID(context.Background(), requestctx.RequestID(ctx))
	sent := *n
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fwdCtx, cancel := context.WithTimeout(fwdCtx, forwardTimeout)
		defer cancel()

		if err := s.sender.Send(fwdCtx, &sent); err != nil {
			s.logger.Warn("Failed to forward notification", logging.Fields{
				"notification_id": sent.ID,
				"user_id":         sent.UserID,
				"error":           err.Error(),
			})
		}
	}()
}

// Wait blocks until background forwards finish.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

// List returns the user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, int, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, &models.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Notifications marked read", logging.Fields{"user_id": userID, "count": n})
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
