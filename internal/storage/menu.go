package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/ristorante/internal/domain/models"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuStorage описывает методы для работы с позициями меню.
type MenuStorage interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	// ListMenuItems возвращает позиции меню; onlyAvailable ограничивает
	// выборку доступными для заказа.
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
	// CountByCategory считает позиции, ссылающиеся на раздел. Используется
	// как предварительная проверка перед удалением раздела.
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
}

type menuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) MenuStorage {
	return &menuRepository{db: db}
}

const menuColumns = `id, category_id, name, description, price, available, image_url`

func (r *menuRepository) CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO menu_items (category_id, name, description, price, available, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.CategoryID, item.Name, item.Description, item.Price, item.Available, item.ImageURL,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return item, nil
}

func (r *menuRepository) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+menuColumns+" FROM menu_items WHERE id = $1", id)
	return scanMenuItem(row)
}

func (r *menuRepository) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error) {
	query := "SELECT " + menuColumns + " FROM menu_items"
	if onlyAvailable {
		query += " WHERE available"
	}
	query += " ORDER BY category_id, name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *menuRepository) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET category_id = $1, name = $2, description = $3,
		 price = $4, available = $5, image_url = $6 WHERE id = $7`,
		item.CategoryID, item.Name, item.Description, item.Price, item.Available, item.ImageURL, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// DeleteMenuItem удаляет позицию меню. Снимки в строках заказов на нее не
// ссылаются жестко, поэтому история заказов не затрагивается.
func (r *menuRepository) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (r *menuRepository) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	row := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM menu_items WHERE category_id = $1", categoryID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count menu items: %w", err)
	}
	return count, nil
}

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	err := row.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description, &item.Price, &item.Available, &item.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to scan menu item: %w", err)
	}
	return item, nil
}
