package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/linemk/ristorante/internal/domain/models"
	"github.com/linemk/ristorante/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/ristorante/internal/service"
)

// CartLineRequest — позиция корзины в запросе оформления заказа. Имя и цена
// входят в запрос: они фиксируются в заказе как снимок.
type CartLineRequest struct {
	ItemID         string  `json:"itemId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	Customizations string  `json:"customizations"`
}

// CreateOrderRequest — тело запроса POST /orders.
type CreateOrderRequest struct {
	CustomerName string            `json:"customerName" validate:"required"`
	Cart         []CartLineRequest `json:"cart" validate:"required,min=1,dive"`
}

// CreateOrderResponse — ответ при успешном оформлении заказа.
type CreateOrderResponse struct {
	OrderID           string        `json:"orderId"`
	CustomerName      string        `json:"customerName"`
	EstimatedWaitTime string        `json:"estimatedWaitTime"`
	OrderDetails      *models.Order `json:"orderDetails"`
}

// UpdateStatusRequest — тело запроса PUT /orders/{orderId}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrderHandler обрабатывает запрос POST /orders.
// Токен не обязателен: если он есть, заказ привязывается к пользователю.
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "validation error")
			return
		}

		var userID *int64
		if principal, ok := jwtmiddleware.FromContext(r.Context()); ok {
			userID = &principal.ID
		}

		cart := make([]service.CartLine, 0, len(req.Cart))
		for _, line := range req.Cart {
			cart = append(cart, service.CartLine{
				ItemID:         line.ItemID,
				Name:           line.Name,
				Price:          decimal.NewFromFloat(line.Price),
				Quantity:       line.Quantity,
				Customizations: line.Customizations,
			})
		}

		result, err := orderService.CreateOrder(r.Context(), req.CustomerName, cart, userID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrCustomerNameRequired),
				errors.Is(err, service.ErrEmptyOrder),
				errors.Is(err, service.ErrInvalidQuantity),
				errors.Is(err, service.ErrInvalidPrice):
				writeError(logger, w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrOrderNumberConflict):
				// Коллизия номеров при конкурентном оформлении: просим
				// клиента отправить заказ повторно.
				writeError(logger, w, http.StatusConflict, "order number conflict, please resubmit your order")
			default:
				logger.Error("failed to create order", slog.Any("error", err))
				writeError(logger, w, http.StatusInternalServerError, "")
			}
			return
		}

		writeJSON(logger, w, http.StatusCreated, CreateOrderResponse{
			OrderID:           result.Order.Number,
			CustomerName:      result.Order.CustomerName,
			EstimatedWaitTime: result.EstimatedWaitTime,
			OrderDetails:      result.Order,
		})
	}
}

// TrackOrderHandler обрабатывает запрос GET /orders/track/{orderId}.
// Эндпоинт публичный, номер матчится без учета регистра. Клиент опрашивает
// его по таймеру; сервер никакого состояния опроса не хранит.
func TrackOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TrackOrderHandler"
		logger := log.With(slog.String("op", op))

		number := chi.URLParam(r, "orderId")
		if number == "" {
			writeError(logger, w, http.StatusBadRequest, "orderId parameter is required")
			return
		}

		order, err := orderService.Track(r.Context(), number)
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				writeError(logger, w, http.StatusNotFound, "order not found")
				return
			}
			logger.Error("failed to track order", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, "")
			return
		}

		writeJSON(logger, w, http.StatusOK, order)
	}
}

// QueueHandler обрабатывает запрос GET /orders/queue (только персонал).
// Возвращает активные заказы по возрастанию времени оформления.
func QueueHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.QueueHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.ActiveQueue(r.Context())
		if err != nil {
			logger.Error("failed to get queue", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, "")
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(logger, w, http.StatusOK, orders)
	}
}

// UpdateStatusHandler обрабатывает запрос PUT /orders/{orderId}/status
// (только персонал).
func UpdateStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateStatusHandler"
		logger := log.With(slog.String("op", op))

		number := chi.URLParam(r, "orderId")
		if number == "" {
			writeError(logger, w, http.StatusBadRequest, "orderId parameter is required")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusBadRequest, "validation error")
			return
		}

		order, err := orderService.UpdateStatus(r.Context(), number, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidStatus):
				writeError(logger, w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrOrderNotFound):
				writeError(logger, w, http.StatusNotFound, "order not found")
			default:
				logger.Error("failed to update status", slog.Any("error", err))
				writeError(logger, w, http.StatusInternalServerError, "")
			}
			return
		}

		writeJSON(logger, w, http.StatusOK, order)
	}
}

// MyHistoryHandler обрабатывает запрос GET /orders/my-history.
// Возвращает заказы вызывающего по убыванию времени оформления.
func MyHistoryHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyHistoryHandler"
		logger := log.With(slog.String("op", op))

		principal, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("principal not found in context")
			writeError(logger, w, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := orderService.OrdersForUser(r.Context(), principal.ID)
		if err != nil {
			logger.Error("failed to get order history", slog.Any("error", err))
			writeError(logger, w, http.StatusInternalServerError, "")
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(logger, w, http.StatusOK, orders)
	}
}
