package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func TestNotificationService_NotifyStoresAndForwards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.notifications.Notify(ctx, &models.Notification{UserID: "u1", Kind: models.NotificationOrderPlaced, Title: "one"})
	env.notifications.Notify(ctx, &models.Notification{UserID: "u1", Kind: models.NotificationOrderStatus, Title: "two"})
	env.notifications.Notify(ctx, &models.Notification{Title: "nobody"})
	env.notifications.Wait()

	assert.Len(t, env.sender.Sent(), 2)

	list, total, err := env.notifications.List(ctx, "u1", false, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "two", list[0].Title)

	require.NoError(t, env.notifications.MarkRead(ctx, "u1", list[0].ID))
	unread, _, err := env.notifications.List(ctx, "u1", true, 0, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "one", unread[0].Title)

	n, err := env.notifications.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := env.notifications.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	err = env.notifications.MarkRead(ctx, "u2", list[0].ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestNotificationService_Disabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Features.EnableNotifications = false

	env.notifications.Notify(context.Background(), &models.Notification{UserID: "u1", Title: "muted"})
	env.notifications.Wait()

	count, _ := env.notifications.UnreadCount(context.Background(), "u1")
	assert.Zero(t, count)
	assert.Empty(t, env.sender.Sent())
}

func TestNotificationService_ForwardFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	env.sender.Err = errors.NewUpstreamStatusError("notification", 502)

	env.notifications.Notify(context.Background(), &models.Notification{UserID: "u1", Title: "kept"})
	env.notifications.Wait()

	count, _ := env.notifications.UnreadCount(context.Background(), "u1")
	assert.Equal(t, 1, count)
}
