package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerV2_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewWithZap("cart-service", zap.New(core))

	logger.Info("Item added", Fields{"user_id": "usr_1", "product_id": "p-9"})
	logger.Debug("Cart priced", Fields{"lines": 2}, Fields{"total": 130.0})

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "Item added", first.Message)
	assert.Equal(t, "cart-service", first.LoggerName)
	ctx := first.ContextMap()
	assert.Equal(t, "usr_1", ctx["user_id"])
	assert.Equal(t, "p-9", ctx["product_id"])

	second := entries[1].ContextMap()
	assert.EqualValues(t, 2, second["lines"])
	assert.EqualValues(t, 130.0, second["total"])
}

func TestLoggerV2_With(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := NewWithZap("checkout", zap.New(core)).With(Fields{"request_id": "req-1"})

	logger.Error("Checkout failed")
	logger.Debug("below level")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])
}

func TestNewWithZap_NilFallsBackToNop(t *testing.T) {
	logger := NewWithZap("noop", nil)
	assert.NotPanics(t, func() {
		logger.Info("ignored", Fields{"k": "v"})
	})
}
