package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linemk/ristorante/internal/assets"
	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/storage"
)

var (
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrMenuItemNameRequired = errors.New("menu item name is required")
	ErrMenuItemBadPrice     = errors.New("menu item price must not be negative")
)

// MenuItemInput — данные позиции меню от персонала.
type MenuItemInput struct {
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
}

// MenuService управляет позициями меню.
type MenuService interface {
	CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	ListMenu(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, input MenuItemInput) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
	UploadItemImage(ctx context.Context, id int64, data []byte, contentType string) (*models.MenuItem, error)
}

type menuService struct {
	log          *slog.Logger
	menuRepo     storage.MenuStorage
	categoryRepo storage.CategoryStorage
	assetStore   assets.Store
}

func NewMenuService(log *slog.Logger, menuRepo storage.MenuStorage, categoryRepo storage.CategoryStorage, assetStore assets.Store) MenuService {
	return &menuService{
		log:          log,
		menuRepo:     menuRepo,
		categoryRepo: categoryRepo,
		assetStore:   assetStore,
	}
}

func (s *menuService) validateInput(ctx context.Context, input MenuItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrMenuItemNameRequired
	}
	if input.Price.IsNegative() {
		return ErrMenuItemBadPrice
	}
	if _, err := s.categoryRepo.GetCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *menuService) CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error) {
	const op = "service.MenuService.CreateMenuItem"

	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}
	item, err := s.menuRepo.CreateMenuItem(ctx, &models.MenuItem{
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Available:   input.Available,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("menu item created", slog.String("op", op), slog.Int64("id", item.ID))
	return item, nil
}

func (s *menuService) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	const op = "service.MenuService.GetMenuItem"

	item, err := s.menuRepo.GetMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrMenuItemNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

func (s *menuService) ListMenu(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error) {
	const op = "service.MenuService.ListMenu"

	items, err := s.menuRepo.ListMenuItems(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// UpdateMenuItem редактирует позицию меню. Уже оформленные заказы хранят
// снимок имени и цены, поэтому правка их не затрагивает.
func (s *menuService) UpdateMenuItem(ctx context.Context, id int64, input MenuItemInput) (*models.MenuItem, error) {
	const op = "service.MenuService.UpdateMenuItem"

	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}
	item, err := s.menuRepo.GetMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrMenuItemNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item.CategoryID = input.CategoryID
	item.Name = input.Name
	item.Description = input.Description
	item.Price = input.Price.Round(2)
	item.Available = input.Available

	if err := s.menuRepo.UpdateMenuItem(ctx, item); err != nil {
		if errors.Is(err, storage.ErrMenuItemNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// DeleteMenuItem удаляет позицию меню. Картинка в внешнем хранилище
// удаляется по принципу best effort: неудача пишется в лог и не отменяет
// основную операцию.
func (s *menuService) DeleteMenuItem(ctx context.Context, id int64) error {
	const op = "service.MenuService.DeleteMenuItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	item, err := s.menuRepo.GetMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrMenuItemNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.menuRepo.DeleteMenuItem(ctx, id); err != nil {
		if errors.Is(err, storage.ErrMenuItemNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if item.ImageURL != "" {
		if err := s.assetStore.Delete(ctx, item.ImageURL); err != nil {
			logger.Warn("failed to delete item image", slog.Any("error", err))
		}
	}
	logger.Info("menu item deleted")
	return nil
}

// UploadItemImage загружает новую картинку позиции и запоминает ее URL.
// Старая картинка удаляется best effort.
func (s *menuService) UploadItemImage(ctx context.Context, id int64, data []byte, contentType string) (*models.MenuItem, error) {
	const op = "service.MenuService.UploadItemImage"
	logger := s.log.With(slog.String("op", op), slog.Int64("id", id))

	item, err := s.menuRepo.GetMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrMenuItemNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	newURL, err := s.assetStore.Upload(ctx, data, contentType)
	if err != nil {
		logger.Error("failed to upload image", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to upload image: %w", op, err)
	}

	oldURL := item.ImageURL
	item.ImageURL = newURL
	if err := s.menuRepo.UpdateMenuItem(ctx, item); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if oldURL != "" {
		if err := s.assetStore.Delete(ctx, oldURL); err != nil {
			logger.Warn("failed to delete previous image", slog.Any("error", err))
		}
	}
	return item, nil
}
