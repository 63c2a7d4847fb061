package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/storage"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameRequired = errors.New("category name is required")
	// ErrCategoryInUse — на раздел еще ссылаются позиции меню. Проверка
	// выполняется до удаления; межсущностной транзакции здесь нет.
	ErrCategoryInUse = errors.New("category still has menu items")
)

// CategoryService управляет разделами меню.
type CategoryService interface {
	CreateCategory(ctx context.Context, name string, displayOrder int) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, displayOrder int) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryService struct {
	log          *slog.Logger
	categoryRepo storage.CategoryStorage
	menuRepo     storage.MenuStorage
}

func NewCategoryService(log *slog.Logger, categoryRepo storage.CategoryStorage, menuRepo storage.MenuStorage) CategoryService {
	return &categoryService{
		log:          log,
		categoryRepo: categoryRepo,
		menuRepo:     menuRepo,
	}
}

func (s *categoryService) CreateCategory(ctx context.Context, name string, displayOrder int) (*models.Category, error) {
	const op = "service.CategoryService.CreateCategory"

	if strings.TrimSpace(name) == "" {
		return nil, ErrCategoryNameRequired
	}
	category, err := s.categoryRepo.CreateCategory(ctx, &models.Category{
		Name:         name,
		DisplayOrder: displayOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("category created", slog.String("op", op), slog.Int64("id", category.ID))
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CategoryService.ListCategories"

	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id int64, name string, displayOrder int) (*models.Category, error) {
	const op = "service.CategoryService.UpdateCategory"

	if strings.TrimSpace(name) == "" {
		return nil, ErrCategoryNameRequired
	}
	category := &models.Category{ID: id, Name: name, DisplayOrder: displayOrder}
	if err := s.categoryRepo.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

// DeleteCategory удаляет раздел. Раздел с позициями меню удалить нельзя:
// сначала проверяется счетчик ссылающихся позиций.
func (s *categoryService) DeleteCategory(ctx context.Context, id int64) error {
	const op = "service.CategoryService.DeleteCategory"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	count, err := s.menuRepo.CountByCategory(ctx, id)
	if err != nil {
		logger.Error("failed to count menu items", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		logger.Warn("category still in use", slog.Int("items", count))
		return ErrCategoryInUse
	}

	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("category deleted")
	return nil
}
