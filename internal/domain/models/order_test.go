package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linemk/ristorante/internal/domain/models"
)

func TestOrderStatus_IsValid(t *testing.T) {
	for _, status := range models.AllStatuses {
		assert.True(t, status.IsValid(), status)
	}
	assert.False(t, models.OrderStatus("Sconosciuto").IsValid())
	assert.False(t, models.OrderStatus("").IsValid())
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, models.StatusReceived.IsTerminal())
	assert.False(t, models.StatusInPreparation.IsTerminal())
	assert.False(t, models.StatusReady.IsTerminal())
	assert.True(t, models.StatusServed.IsTerminal())
	assert.True(t, models.StatusCancelled.IsTerminal())
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	// Персонал может исправить любой статус на любой другой, включая
	// возврат из терминальных.
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			assert.True(t, from.CanTransitionTo(to))
		}
	}
	assert.False(t, models.StatusReceived.CanTransitionTo(models.OrderStatus("Sconosciuto")))
}
