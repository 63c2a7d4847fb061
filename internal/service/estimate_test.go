package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linemk/ristorante/internal/service"
)

func TestEstimateWait_EmptyQueue(t *testing.T) {
	// Пустая очередь: заказ учитывает сам себя, среднее равно константе.
	est := service.EstimateWait(0)
	assert.Equal(t, service.AvgPrepMinutes, est.Average)
	assert.Equal(t, 10, est.Min)
	assert.Equal(t, 15, est.Max)
	assert.Equal(t, "10-15 minuti", est.String())
}

func TestEstimateWait_QueueOfTwo(t *testing.T) {
	est := service.EstimateWait(2)
	assert.Equal(t, 30, est.Average)
	assert.Equal(t, 25, est.Min)
	assert.Equal(t, 35, est.Max)
	assert.Equal(t, "25-35 minuti", est.String())
}

func TestEstimateWait_MinNeverBelowConstant(t *testing.T) {
	// Нижняя граница не опускается ниже среднего времени приготовления.
	est := service.EstimateWait(0)
	assert.GreaterOrEqual(t, est.Min, service.AvgPrepMinutes)
}

func TestEstimateWait_Monotonic(t *testing.T) {
	// Оценка не убывает с ростом очереди.
	prev := service.EstimateWait(0)
	for q := 1; q <= 50; q++ {
		cur := service.EstimateWait(q)
		assert.GreaterOrEqual(t, cur.Average, prev.Average)
		assert.GreaterOrEqual(t, cur.Min, prev.Min)
		assert.GreaterOrEqual(t, cur.Max, prev.Max)
		prev = cur
	}
}
