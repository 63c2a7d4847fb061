package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/linemk/ristorante/internal/domain/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNumberExists возвращается при нарушении уникального индекса на
	// номере заказа. Генерация номера читает последний номер вне транзакции
	// вставки, поэтому два конкурентных заказа могут получить один и тот же
	// "следующий" номер; коллизия обнаруживается на вставке и отдается
	// вызывающему как повторяемая ошибка.
	ErrOrderNumberExists = errors.New("order number already exists")
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// LastNumber возвращает лексикографически наибольший номер заказа с
	// префиксом ORD, либо пустую строку, если заказов еще нет.
	LastNumber(ctx context.Context) (string, error)
	// CountActive считает заказы вне терминальных статусов.
	CountActive(ctx context.Context) (int, error)
	// CreateOrderTx вставляет заказ вместе с позициями и первой записью
	// истории в рамках переданной транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// UpdateStatusTx обновляет статус заказа и возвращает его id.
	// setReady/setServed управляют установкой отметок готовности/выдачи.
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, number string, status models.OrderStatus, now time.Time, setReady, setServed bool) (int64, error)
	// AppendHistoryTx добавляет запись в историю статусов.
	AppendHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus, ts time.Time) error
	// GetByNumber возвращает заказ с позициями и историей по точному номеру.
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	// ListActive возвращает активные заказы по возрастанию времени создания.
	ListActive(ctx context.Context) ([]*models.Order, error)
	// ListByUser возвращает заказы пользователя по убыванию времени создания.
	ListByUser(ctx context.Context, userID int64) ([]*models.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `id, number, user_id, customer_name, status, total_amount, created_at, estimated_ready_at, actual_ready_at, served_at`

func (r *orderRepository) LastNumber(ctx context.Context) (string, error) {
	var number string
	row := r.db.QueryRowContext(ctx,
		"SELECT number FROM orders WHERE number LIKE 'ORD%' ORDER BY number DESC LIMIT 1")
	if err := row.Scan(&number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last order number: %w", err)
	}
	return number, nil
}

func (r *orderRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	row := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE status NOT IN ($1, $2)",
		models.StatusServed, models.StatusCancelled)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

// CreateOrderTx вставляет заказ, его позиции и первую запись истории.
// Нарушение уникальности номера транслируется в ErrOrderNumberExists.
func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (number, user_id, customer_name, status, total_amount, created_at, estimated_ready_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := tx.QueryRowContext(ctx, query,
		order.Number,
		order.UserID,
		order.CustomerName,
		order.Status,
		order.TotalAmount,
		order.CreatedAt,
		order.EstimatedReadyAt,
	).Scan(&order.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return ErrOrderNumberExists
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_lines (order_id, menu_item_id, name, price, quantity, customizations)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			order.ID, line.MenuItemID, line.Name, line.Price, line.Quantity, line.Customizations,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	for _, change := range order.History {
		if err := r.AppendHistoryTx(ctx, tx, order.ID, change.Status, change.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, number string, status models.OrderStatus, now time.Time, setReady, setServed bool) (int64, error) {
	// Отметки готовности/выдачи перезаписываются при каждом входе в
	// соответствующий статус, в том числе повторном.
	query := `UPDATE orders SET status = $1,
	          actual_ready_at = CASE WHEN $2 THEN $3 ELSE actual_ready_at END,
	          served_at = CASE WHEN $4 THEN $3 ELSE served_at END
	          WHERE number = $5 RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query, status, setReady, now, setServed, number).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrOrderNotFound
		}
		return 0, fmt.Errorf("failed to update order status: %w", err)
	}
	return id, nil
}

func (r *orderRepository) AppendHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus, ts time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO order_status_history (order_id, status, changed_at) VALUES ($1, $2, $3)",
		orderID, status, ts)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE number = $1", number)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
		return nil, err
	}
	if order.History, err = r.loadHistory(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListActive(ctx context.Context) ([]*models.Order, error) {
	query := "SELECT " + orderColumns + ` FROM orders
	          WHERE status NOT IN ($1, $2) ORDER BY created_at ASC`
	return r.listOrders(ctx, query, models.StatusServed, models.StatusCancelled)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := "SELECT " + orderColumns + ` FROM orders
	          WHERE user_id = $1 ORDER BY created_at DESC`
	return r.listOrders(ctx, query, userID)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if order.Lines, err = r.loadLines(ctx, order.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, menu_item_id, name, price, quantity, customizations
		 FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ID, &line.MenuItemID, &line.Name, &line.Price, &line.Quantity, &line.Customizations); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *orderRepository) loadHistory(ctx context.Context, orderID int64) ([]models.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, changed_at FROM order_status_history
		 WHERE order_id = $1 ORDER BY changed_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var change models.StatusChange
		if err := rows.Scan(&change.Status, &change.Timestamp); err != nil {
			return nil, err
		}
		history = append(history, change)
	}
	return history, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder читает заказ из строки результата.
func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var (
		userID   sql.NullInt64
		readyAt  sql.NullTime
		servedAt sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.Number,
		&userID,
		&order.CustomerName,
		&order.Status,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.EstimatedReadyAt,
		&readyAt,
		&servedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if userID.Valid {
		order.UserID = &userID.Int64
	}
	if readyAt.Valid {
		t := readyAt.Time
		order.ActualReadyAt = &t
	}
	if servedAt.Valid {
		t := servedAt.Time
		order.ServedAt = &t
	}
	return order, nil
}
