package service

import "fmt"

// AvgPrepMinutes — среднее время приготовления одного заказа в минутах.
const AvgPrepMinutes = 10

// WaitEstimate — расчетное окно ожидания в минутах.
type WaitEstimate struct {
	Min     int
	Max     int
	Average int
}

// EstimateWait считает окно ожидания по глубине очереди активных заказов.
// Новый заказ учитывает сам себя в очереди, отсюда +1. Функция чистая и
// детерминированная.
func EstimateWait(activeQueue int) WaitEstimate {
	average := (activeQueue + 1) * AvgPrepMinutes
	min := average - 5
	if min < AvgPrepMinutes {
		min = AvgPrepMinutes
	}
	return WaitEstimate{
		Min:     min,
		Max:     average + 5,
		Average: average,
	}
}

// String форматирует окно так, как оно показывается клиенту.
func (e WaitEstimate) String() string {
	return fmt.Sprintf("%d-%d minuti", e.Min, e.Max)
}
