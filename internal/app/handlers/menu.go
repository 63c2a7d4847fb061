package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/service"
)

// MenuItemRequest — тело запроса создания/редактирования позиции меню.
type MenuItemRequest struct {
	CategoryID  int64   `json:"categoryId" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Available   bool    `json:"available"`
}

// Лимит на размер загружаемой картинки.
const maxImageSize = 5 << 20

func menuInputFromRequest(req MenuItemRequest) service.MenuItemInput {
	return service.MenuItemInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Available:   req.Available,
	}
}

func itemIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
}

// ListMenuHandler обрабатывает запрос GET /menu. Публичный список содержит
// только доступные позиции; персонал видит все через ?all=true.
func ListMenuHandler(log *slog.Logger, menuService service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListMenuHandler"
		logger := log.With(slog.String("op", op))

		onlyAvailable := r.URL.Query().Get("all") != "true"
		items, err := menuService.ListMenu(r.Context(), onlyAvailable)
		if err != nil {
			logger.Error("failed to list menu", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, "")
			return
		}
		if items == nil {
			items = []*models.MenuItem{}
		}

		writeJSON(logger, w, http.StatusOK, items)
	}
}

// CreateMenuItemHandler обрабатывает запрос POST /menu (только персонал).
func CreateMenuItemHandler(log *slog.Logger, menuService service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateMenuItemHandler"
		logger := log.With(slog.String("op", op))

		var req MenuItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusBadRequest, "validation error")
			return
		}

		item, err := menuService.CreateMenuItem(r.Context(), menuInputFromRequest(req))
		if err != nil {
			writeMenuError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusCreated, item)
	}
}

// UpdateMenuItemHandler обрабатывает запрос PUT /menu/{itemId} (только персонал).
func UpdateMenuItemHandler(log *slog.Logger, menuService service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateMenuItemHandler"
		logger := log.With(slog.String("op", op))

		id, err := itemIDFromURL(r)
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, "invalid item id")
			return
		}

		var req MenuItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusBadRequest, "validation error")
			return
		}

		item, err := menuService.UpdateMenuItem(r.Context(), id, menuInputFromRequest(req))
		if err != nil {
			writeMenuError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, item)
	}
}

// DeleteMenuItemHandler обрабатывает запрос DELETE /menu/{itemId} (только персонал).
func DeleteMenuItemHandler(log *slog.Logger, menuService service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteMenuItemHandler"
		logger := log.With(slog.String("op", op))

		id, err := itemIDFromURL(r)
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, "invalid item id")
			return
		}

		if err := menuService.DeleteMenuItem(r.Context(), id); err != nil {
			writeMenuError(logger, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadItemImageHandler обрабатывает запрос POST /menu/{itemId}/image
// (только персонал). Тело запроса — сырые байты картинки, тип берется из
// заголовка Content-Type.
func UploadItemImageHandler(log *slog.Logger, menuService service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UploadItemImageHandler"
		logger := log.With(slog.String("op", op))

		id, err := itemIDFromURL(r)
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, "invalid item id")
			return
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, maxImageSize))
		if err != nil {
			logger.Error("failed to read image body", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "unable to read body")
			return
		}
		if len(data) == 0 {
			writeError(logger, w, http.StatusBadRequest, "empty image body")
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		item, err := menuService.UploadItemImage(r.Context(), id, data, contentType)
		if err != nil {
			writeMenuError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, item)
	}
}

func writeMenuError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMenuItemNotFound):
		writeError(logger, w, http.StatusNotFound, "menu item not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		writeError(logger, w, http.StatusBadRequest, "category not found")
	case errors.Is(err, service.ErrMenuItemNameRequired),
		errors.Is(err, service.ErrMenuItemBadPrice):
		writeError(logger, w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("menu operation failed", slog.Any("error", err))
		writeError(logger, w, http.StatusInternalServerError, "")
	}
}
