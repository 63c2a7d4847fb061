package storage_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/storage"
)

func TestLastNumber_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"number"}).AddRow("ORD041")
	mock.ExpectQuery("SELECT number FROM orders WHERE number LIKE 'ORD%' ORDER BY number DESC LIMIT 1").
		WillReturnRows(rows)

	number, err := repo.LastNumber(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "ORD041", number)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastNumber_NoOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	// Пустая выборка означает отсутствие заказов, а не ошибку.
	rows := sqlmock.NewRows([]string{"number"})
	mock.ExpectQuery("SELECT number FROM orders WHERE number LIKE 'ORD%' ORDER BY number DESC LIMIT 1").
		WillReturnRows(rows)

	number, err := repo.LastNumber(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "", number)
}

func TestCountActive_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE status NOT IN ($1, $2)")).
		WithArgs(string(models.StatusServed), string(models.StatusCancelled)).
		WillReturnRows(rows)

	count, err := repo.CountActive(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCreateOrderTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	now := time.Now()
	order := &models.Order{
		Number:       "ORD001",
		CustomerName: "Mario",
		Status:       models.StatusReceived,
		History: []models.StatusChange{
			{Status: models.StatusReceived, Timestamp: now},
		},
		TotalAmount:      decimal.NewFromFloat(15.00),
		CreatedAt:        now,
		EstimatedReadyAt: now.Add(10 * time.Minute),
		Lines: []models.OrderLine{
			{MenuItemID: "x", Name: "Margherita", Price: decimal.NewFromFloat(7.5), Quantity: 2},
		},
	}

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(order.Number, nil, order.CustomerName, string(order.Status), order.TotalAmount, order.CreatedAt, order.EstimatedReadyAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_lines")).
		WithArgs(int64(7), "x", "Margherita", decimal.NewFromFloat(7.5), 2, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_status_history")).
		WithArgs(int64(7), string(models.StatusReceived), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.CreateOrderTx(ctx, tx, order)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, int64(1), order.Lines[0].ID)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTx_DuplicateNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	// Нарушение уникального индекса на номере заказа.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnError(&pq.Error{Code: "23505"})

	order := &models.Order{
		Number:           "ORD001",
		CustomerName:     "Mario",
		Status:           models.StatusReceived,
		TotalAmount:      decimal.NewFromFloat(15.00),
		CreatedAt:        time.Now(),
		EstimatedReadyAt: time.Now().Add(10 * time.Minute),
	}
	err = repo.CreateOrderTx(ctx, tx, order)
	assert.ErrorIs(t, err, storage.ErrOrderNumberExists)

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs(string(models.StatusServed), false, sqlmock.AnyArg(), true, "ORD999").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.UpdateStatusTx(ctx, tx, "ORD999", models.StatusServed, time.Now(), false, true)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
}

func TestUpdateStatusTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery("UPDATE orders SET status").
		WithArgs(string(models.StatusReady), true, sqlmock.AnyArg(), false, "ORD001").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.UpdateStatusTx(ctx, tx, "ORD001", models.StatusReady, time.Now(), true, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
}

func TestGetByNumber_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	now := time.Now()
	orderRows := sqlmock.NewRows([]string{
		"id", "number", "user_id", "customer_name", "status",
		"total_amount", "created_at", "estimated_ready_at", "actual_ready_at", "served_at",
	}).AddRow(7, "ORD001", nil, "Mario", string(models.StatusReceived), "15.00", now, now.Add(10*time.Minute), nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE number = \\$1").
		WithArgs("ORD001").WillReturnRows(orderRows)

	lineRows := sqlmock.NewRows([]string{"id", "menu_item_id", "name", "price", "quantity", "customizations"}).
		AddRow(1, "x", "Margherita", "7.50", 2, "")
	mock.ExpectQuery("FROM order_lines WHERE order_id = \\$1").
		WithArgs(int64(7)).WillReturnRows(lineRows)

	historyRows := sqlmock.NewRows([]string{"status", "changed_at"}).
		AddRow(string(models.StatusReceived), now)
	mock.ExpectQuery("SELECT (.+) FROM order_status_history").
		WithArgs(int64(7)).WillReturnRows(historyRows)

	order, err := repo.GetByNumber(ctx, "ORD001")
	assert.NoError(t, err)
	assert.Equal(t, "ORD001", order.Number)
	assert.Equal(t, models.StatusReceived, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(15.00)))
	assert.Len(t, order.Lines, 1)
	assert.Equal(t, 2, order.Lines[0].Quantity)
	assert.Len(t, order.History, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByNumber_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "number", "user_id", "customer_name", "status",
		"total_amount", "created_at", "estimated_ready_at", "actual_ready_at", "served_at",
	})
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE number = \\$1").
		WithArgs("ORD999").WillReturnRows(rows)

	order, err := repo.GetByNumber(ctx, "ORD999")
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Nil(t, order)
}

func TestCreateUser_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err = repo.CreateUser(ctx, &models.User{
		Email:    "mario@example.com",
		Name:     "Mario",
		PassHash: []byte("hash"),
		Role:     models.RoleCustomer,
	})
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "email", "name", "pass_hash", "role"})
	mock.ExpectQuery("SELECT id, email, name, pass_hash, role FROM users WHERE email = \\$1").
		WithArgs("nobody@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user)
}

func TestCountByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewMenuRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM menu_items WHERE category_id = $1")).
		WithArgs(int64(5)).WillReturnRows(rows)

	count, err := repo.CountByCategory(ctx, 5)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
