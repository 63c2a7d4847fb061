package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/lib/poller"
)

// trackedOrder — подмножество ответа /orders/track, нужное для вывода.
type trackedOrder struct {
	OrderID            string                `json:"orderId"`
	CustomerName       string                `json:"customerName"`
	Status             models.OrderStatus    `json:"status"`
	EstimatedReadyTime time.Time             `json:"estimatedReadyTime"`
	History            []models.StatusChange `json:"statusHistory"`
}

// Клиент отслеживания заказа. Каждый запущенный процесс — отдельный
// наблюдатель со своим циклом опроса: сервер про него ничего не знает и
// каждый запрос обслуживает как независимое чтение.
func main() {
	var (
		addr     string
		number   string
		interval time.Duration
	)
	flag.StringVar(&addr, "addr", "http://localhost:8080", "server base URL")
	flag.StringVar(&number, "order", "", "order number to track (e.g. ORD001)")
	flag.DurationVar(&interval, "interval", 10*time.Second, "polling interval")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if number == "" {
		log.Error("order number is required")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	finished := make(chan struct{}, 1)

	task := poller.New(interval, log, func(ctx context.Context) error {
		order, err := fetchOrder(ctx, client, addr, number)
		if err != nil {
			return err
		}

		// Оставшееся время — чисто презентационный расчет, не ниже нуля.
		remaining := int(time.Until(order.EstimatedReadyTime).Minutes())
		if remaining < 0 {
			remaining = 0
		}

		log.Info("order status",
			slog.String("order", order.OrderID),
			slog.String("status", string(order.Status)),
			slog.Int("remainingMinutes", remaining),
		)

		if order.Status.IsTerminal() {
			select {
			case finished <- struct{}{}:
			default:
			}
		}
		return nil
	})

	ctx := context.Background()
	task.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("stopping tracker")
	case <-finished:
		log.Info("order reached terminal status")
	}
	task.Stop()
}

func fetchOrder(ctx context.Context, client *http.Client, addr, number string) (*trackedOrder, error) {
	url := fmt.Sprintf("%s/orders/track/%s", addr, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("order %s not found", number)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var order trackedOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &order, nil
}
