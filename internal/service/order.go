package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/storage"
)

var (
	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("item quantity must be positive")
	ErrInvalidPrice         = errors.New("item price must not be negative")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrOrderNotFound        = errors.New("order not found")
	// ErrOrderNumberConflict — два конкурентных заказа получили один номер.
	// Ошибка повторяемая: клиенту предлагается отправить заказ еще раз.
	ErrOrderNumberConflict = errors.New("order number conflict, please retry")
)

// CartLine — позиция корзины из запроса клиента. Имя и цена фиксируются
// в заказе как снимок.
type CartLine struct {
	ItemID         string
	Name           string
	Price          decimal.Decimal
	Quantity       int
	Customizations string
}

// CreateOrderResult — созданный заказ вместе с окном ожидания.
type CreateOrderResult struct {
	Order             *models.Order
	EstimatedWaitTime string
}

// OrderService управляет жизненным циклом заказов.
type OrderService interface {
	CreateOrder(ctx context.Context, customerName string, cart []CartLine, userID *int64) (*CreateOrderResult, error)
	UpdateStatus(ctx context.Context, number string, newStatus string) (*models.Order, error)
	Track(ctx context.Context, number string) (*models.Order, error)
	ActiveQueue(ctx context.Context) ([]*models.Order, error)
	OrdersForUser(ctx context.Context, userID int64) ([]*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
	}
}

// CreateOrder оформляет заказ: валидирует корзину, считает сумму по снимкам
// цен, оценивает ожидание по глубине очереди, выделяет следующий номер и
// сохраняет заказ со статусом "Ricevuto" и одной записью истории.
// Чтение последнего номера и вставка не атомарны: при коллизии номера
// вставка падает на уникальном индексе и клиент получает повторяемую ошибку.
func (s *orderService) CreateOrder(ctx context.Context, customerName string, cart []CartLine, userID *int64) (*CreateOrderResult, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.String("customer", customerName))

	if strings.TrimSpace(customerName) == "" {
		return nil, ErrCustomerNameRequired
	}
	if len(cart) == 0 {
		return nil, ErrEmptyOrder
	}

	total := decimal.Zero
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, line.Name)
		}
		if line.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, line.Name)
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	total = total.Round(2)

	queueLen, err := s.orderRepo.CountActive(ctx)
	if err != nil {
		logger.Error("failed to count active orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count active orders: %w", op, err)
	}
	estimate := EstimateWait(queueLen)

	last, err := s.orderRepo.LastNumber(ctx)
	if err != nil {
		logger.Error("failed to get last order number", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get last order number: %w", op, err)
	}
	number, err := nextOrderNumber(last)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	order := &models.Order{
		Number:       number,
		UserID:       userID,
		CustomerName: customerName,
		Status:       models.StatusReceived,
		History: []models.StatusChange{
			{Status: models.StatusReceived, Timestamp: now},
		},
		TotalAmount:      total,
		CreatedAt:        now,
		EstimatedReadyAt: now.Add(time.Duration(estimate.Average) * time.Minute),
	}
	for _, line := range cart {
		order.Lines = append(order.Lines, models.OrderLine{
			MenuItemID:     line.ItemID,
			Name:           line.Name,
			Price:          line.Price,
			Quantity:       line.Quantity,
			Customizations: line.Customizations,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderNumberExists) {
			logger.Warn("order number collision", slog.String("number", number))
			return nil, ErrOrderNumberConflict
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created",
		slog.String("number", order.Number),
		slog.String("total", total.String()),
		slog.Int("queue", queueLen))

	return &CreateOrderResult{
		Order:             order,
		EstimatedWaitTime: estimate.String(),
	}, nil
}

// UpdateStatus переводит заказ в новый статус и добавляет ровно одну запись
// истории. Предыдущий статус не проверяется: допускается любой переход,
// включая обратный (см. models.OrderStatus.CanTransitionTo). Отметки
// готовности и выдачи проставляются при каждом входе в соответствующий
// статус, без защиты от перезаписи.
func (s *orderService) UpdateStatus(ctx context.Context, number string, newStatus string) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.String("number", number))

	status := models.OrderStatus(newStatus)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	orderID, err := s.orderRepo.UpdateStatusTx(ctx, tx, number, status, now,
		status == models.StatusReady, status == models.StatusServed)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("failed to update status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	if err := s.orderRepo.AppendHistoryTx(ctx, tx, orderID, status, now); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to append history", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to append history: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order status updated", slog.String("status", string(status)))

	order, err := s.orderRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: failed to reload order: %w", op, err)
	}
	return order, nil
}

// Track возвращает полный заказ для отслеживания клиентом. Номер приводится
// к верхнему регистру, поэтому "ord001" находит ORD001.
func (s *orderService) Track(ctx context.Context, number string) (*models.Order, error) {
	const op = "service.OrderService.Track"

	normalized := strings.ToUpper(strings.TrimSpace(number))
	order, err := s.orderRepo.GetByNumber(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	return order, nil
}

// ActiveQueue возвращает активные заказы для персонала по возрастанию
// времени оформления. Каждый опрос — независимое чтение, сервер не хранит
// состояние подписок.
func (s *orderService) ActiveQueue(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.ActiveQueue"

	orders, err := s.orderRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list active orders: %w", op, err)
	}
	return orders, nil
}

// OrdersForUser возвращает заказы пользователя по убыванию времени оформления.
func (s *orderService) OrdersForUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.OrdersForUser"

	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list user orders: %w", op, err)
	}
	return orders, nil
}
