package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linemk/ristorante/internal/assets"
	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/service"
	"github.com/linemk/ristorante/internal/storage"
)

type fakeCategoryRepo struct {
	categories map[int64]*models.Category
	nextID     int64
}

var _ storage.CategoryStorage = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[int64]*models.Category)}
}

func (f *fakeCategoryRepo) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	f.nextID++
	category.ID = f.nextID
	f.categories[category.ID] = category
	return category, nil
}

func (f *fakeCategoryRepo) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, storage.ErrCategoryNotFound
	}
	return category, nil
}

func (f *fakeCategoryRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	for _, c := range f.categories {
		categories = append(categories, c)
	}
	return categories, nil
}

func (f *fakeCategoryRepo) UpdateCategory(ctx context.Context, category *models.Category) error {
	if _, ok := f.categories[category.ID]; !ok {
		return storage.ErrCategoryNotFound
	}
	f.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryRepo) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

type fakeMenuRepo struct {
	items  map[int64]*models.MenuItem
	nextID int64
}

var _ storage.MenuStorage = (*fakeMenuRepo)(nil)

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{items: make(map[int64]*models.MenuItem)}
}

func (f *fakeMenuRepo) CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	f.nextID++
	item.ID = f.nextID
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeMenuRepo) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, storage.ErrMenuItemNotFound
	}
	return item, nil
}

func (f *fakeMenuRepo) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	for _, item := range f.items {
		if onlyAvailable && !item.Available {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeMenuRepo) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return storage.ErrMenuItemNotFound
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeMenuRepo) DeleteMenuItem(ctx context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return storage.ErrMenuItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMenuRepo) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	count := 0
	for _, item := range f.items {
		if item.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// fakeAssetStore — фиктивное внешнее хранилище картинок.
type fakeAssetStore struct {
	uploaded  []string
	deleted   []string
	deleteErr error
}

var _ assets.Store = (*fakeAssetStore)(nil)

func (f *fakeAssetStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	url := "http://assets.local/objects/fake"
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeAssetStore) Delete(ctx context.Context, objectURL string) error {
	f.deleted = append(f.deleted, objectURL)
	return f.deleteErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestDeleteCategory_InUse(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	menuRepo := newFakeMenuRepo()
	svc := service.NewCategoryService(testLogger(), categoryRepo, menuRepo)

	category, err := categoryRepo.CreateCategory(context.Background(), &models.Category{Name: "Pizze"})
	assert.NoError(t, err)
	_, err = menuRepo.CreateMenuItem(context.Background(), &models.MenuItem{
		CategoryID: category.ID,
		Name:       "Margherita",
		Price:      decimal.NewFromFloat(7.5),
	})
	assert.NoError(t, err)

	// Раздел с позициями меню удалить нельзя.
	err = svc.DeleteCategory(context.Background(), category.ID)
	assert.ErrorIs(t, err, service.ErrCategoryInUse)
	assert.Contains(t, categoryRepo.categories, category.ID)
}

func TestDeleteCategory_Empty(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	menuRepo := newFakeMenuRepo()
	svc := service.NewCategoryService(testLogger(), categoryRepo, menuRepo)

	category, err := categoryRepo.CreateCategory(context.Background(), &models.Category{Name: "Dolci"})
	assert.NoError(t, err)

	err = svc.DeleteCategory(context.Background(), category.ID)
	assert.NoError(t, err)
	assert.NotContains(t, categoryRepo.categories, category.ID)
}

func TestCreateMenuItem_UnknownCategory(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	menuRepo := newFakeMenuRepo()
	store := &fakeAssetStore{}
	svc := service.NewMenuService(testLogger(), menuRepo, categoryRepo, store)

	_, err := svc.CreateMenuItem(context.Background(), service.MenuItemInput{
		CategoryID: 42,
		Name:       "Margherita",
		Price:      decimal.NewFromFloat(7.5),
	})
	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
}

func TestDeleteMenuItem_AssetCleanupIsBestEffort(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	menuRepo := newFakeMenuRepo()
	store := &fakeAssetStore{deleteErr: errors.New("asset store unavailable")}
	svc := service.NewMenuService(testLogger(), menuRepo, categoryRepo, store)

	item, err := menuRepo.CreateMenuItem(context.Background(), &models.MenuItem{
		CategoryID: 1,
		Name:       "Margherita",
		Price:      decimal.NewFromFloat(7.5),
		ImageURL:   "http://assets.local/objects/old",
	})
	assert.NoError(t, err)

	// Неудача удаления картинки не отменяет удаление позиции.
	err = svc.DeleteMenuItem(context.Background(), item.ID)
	assert.NoError(t, err)
	assert.NotContains(t, menuRepo.items, item.ID)
	assert.Equal(t, []string{"http://assets.local/objects/old"}, store.deleted)
}

func TestUploadItemImage_ReplacesPrevious(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	menuRepo := newFakeMenuRepo()
	store := &fakeAssetStore{}
	svc := service.NewMenuService(testLogger(), menuRepo, categoryRepo, store)

	item, err := menuRepo.CreateMenuItem(context.Background(), &models.MenuItem{
		CategoryID: 1,
		Name:       "Margherita",
		Price:      decimal.NewFromFloat(7.5),
		ImageURL:   "http://assets.local/objects/old",
	})
	assert.NoError(t, err)

	updated, err := svc.UploadItemImage(context.Background(), item.ID, []byte("img"), "image/png")
	assert.NoError(t, err)
	assert.Equal(t, "http://assets.local/objects/fake", updated.ImageURL)
	// Старая картинка удаляется best effort.
	assert.Equal(t, []string{"http://assets.local/objects/old"}, store.deleted)
}
