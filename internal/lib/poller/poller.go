package poller

import (
	"context"
	"log/slog"
	"time"
)

// Task — периодическая задача с явным жизненным циклом запуска и остановки.
// Отслеживание заказа построено на клиентском опросе: каждый экран трекинга
// держит собственный Task и останавливает его при уходе с экрана, глобального
// состояния опроса нет.
type Task struct {
	interval time.Duration
	fn       func(ctx context.Context) error
	log      *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(interval time.Duration, log *slog.Logger, fn func(ctx context.Context) error) *Task {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Task{
		interval: interval,
		fn:       fn,
		log:      log,
	}
}

// Start запускает цикл опроса в отдельной горутине. Первый вызов fn
// выполняется сразу, дальше — по тикеру. Цикл завершается по Stop или по
// отмене родительского контекста.
func (t *Task) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		if err := t.fn(ctx); err != nil {
			t.log.Warn("poll failed", slog.Any("error", err))
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := t.fn(ctx); err != nil {
					t.log.Warn("poll failed", slog.Any("error", err))
				}
			}
		}
	}()
}

// Stop останавливает цикл и дожидается завершения горутины.
func (t *Task) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
}
