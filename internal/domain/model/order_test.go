package model_test

import (
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Allowed(t *testing.T) {
	allowed := []struct {
		from model.OrderStatus
		to   model.OrderStatus
	}{
		{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
		{model.OrderStatusPending, model.OrderStatusPaid},
		{model.OrderStatusPending, model.OrderStatusFailed},
		{model.OrderStatusPending, model.OrderStatusCancelled},
		{model.OrderStatusWaitingConfirmation, model.OrderStatusPaid},
		{model.OrderStatusWaitingConfirmation, model.OrderStatusFailed},
		{model.OrderStatusWaitingConfirmation, model.OrderStatusCancelled},
		{model.OrderStatusPaid, model.OrderStatusProcessing},
		{model.OrderStatusPaid, model.OrderStatusCancelled},
		{model.OrderStatusProcessing, model.OrderStatusShipped},
		{model.OrderStatusProcessing, model.OrderStatusCancelled},
		{model.OrderStatusShipped, model.OrderStatusCompleted},
		{model.OrderStatusShipped, model.OrderStatusCancelled},
	}

	for _, tc := range allowed {
		assert.True(t, model.CanTransition(tc.from, tc.to),
			"%s -> %s should be allowed", tc.from, tc.to)
	}
}

func TestCanTransition_Rejected(t *testing.T) {
	rejected := []struct {
		from model.OrderStatus
		to   model.OrderStatus
	}{
		//終端からはどこへも行けない
		{model.OrderStatusCompleted, model.OrderStatusCancelled},
		{model.OrderStatusCompleted, model.OrderStatusPending},
		{model.OrderStatusCancelled, model.OrderStatusPending},
		{model.OrderStatusCancelled, model.OrderStatusPaid},
		{model.OrderStatusFailed, model.OrderStatusPaid},
		//逆行・飛び越し
		{model.OrderStatusPaid, model.OrderStatusPending},
		{model.OrderStatusPaid, model.OrderStatusShipped},
		{model.OrderStatusPending, model.OrderStatusProcessing},
		{model.OrderStatusPending, model.OrderStatusShipped},
		{model.OrderStatusPending, model.OrderStatusCompleted},
		{model.OrderStatusShipped, model.OrderStatusProcessing},
		{model.OrderStatusWaitingConfirmation, model.OrderStatusPending},
	}

	for _, tc := range rejected {
		assert.False(t, model.CanTransition(tc.from, tc.to),
			"%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestStockHeld(t *testing.T) {
	assert.True(t, model.StockHeld(model.OrderStatusPaid))
	assert.True(t, model.StockHeld(model.OrderStatusProcessing))
	assert.True(t, model.StockHeld(model.OrderStatusShipped))

	assert.False(t, model.StockHeld(model.OrderStatusPending))
	assert.False(t, model.StockHeld(model.OrderStatusWaitingConfirmation))
	assert.False(t, model.StockHeld(model.OrderStatusCompleted))
	assert.False(t, model.StockHeld(model.OrderStatusCancelled))
	assert.False(t, model.StockHeld(model.OrderStatusFailed))
}
