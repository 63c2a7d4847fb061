package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/service"
)

// CategoryRequest — тело запроса создания/редактирования раздела меню.
type CategoryRequest struct {
	Name         string `json:"name" validate:"required"`
	DisplayOrder int    `json:"displayOrder"`
}

// ListCategoriesHandler обрабатывает запрос GET /categories (публичный).
func ListCategoriesHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		categories, err := categoryService.ListCategories(r.Context())
		if err != nil {
			logger.Error("failed to list categories", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, "")
			return
		}
		if categories == nil {
			categories = []*models.Category{}
		}

		writeJSON(logger, w, http.StatusOK, categories)
	}
}

// CreateCategoryHandler обрабатывает запрос POST /categories (только персонал).
func CreateCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCategoryHandler"
		logger := log.With(slog.String("op", op))

		var req CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusBadRequest, "validation error")
			return
		}

		category, err := categoryService.CreateCategory(r.Context(), req.Name, req.DisplayOrder)
		if err != nil {
			writeCategoryError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusCreated, category)
	}
}

// UpdateCategoryHandler обрабатывает запрос PUT /categories/{categoryId}
// (только персонал).
func UpdateCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, "invalid category id")
			return
		}

		var req CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusBadRequest, "validation error")
			return
		}

		category, err := categoryService.UpdateCategory(r.Context(), id, req.Name, req.DisplayOrder)
		if err != nil {
			writeCategoryError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, category)
	}
}

// DeleteCategoryHandler обрабатывает запрос DELETE /categories/{categoryId}
// (только персонал). Раздел с позициями меню удалить нельзя.
func DeleteCategoryHandler(log *slog.Logger, categoryService service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, "invalid category id")
			return
		}

		if err := categoryService.DeleteCategory(r.Context(), id); err != nil {
			writeCategoryError(logger, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeCategoryError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		writeError(logger, w, http.StatusNotFound, "category not found")
	case errors.Is(err, service.ErrCategoryNameRequired):
		writeError(logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCategoryInUse):
		writeError(logger, w, http.StatusConflict, "category still has menu items")
	default:
		logger.Error("category operation failed", slog.Any("error", err))
		writeError(logger, w, http.StatusInternalServerError, "")
	}
}
