package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает статус заказа в том виде, в котором он отдается клиентам.
type OrderStatus string

const (
	StatusReceived      OrderStatus = "Ricevuto"
	StatusInPreparation OrderStatus = "In Preparazione"
	StatusReady         OrderStatus = "Pronto per il Ritiro/Consegna"
	StatusServed        OrderStatus = "Servito/Consegnato"
	StatusCancelled     OrderStatus = "Annullato"
)

// AllStatuses — полный список допустимых статусов.
var AllStatuses = []OrderStatus{
	StatusReceived,
	StatusInPreparation,
	StatusReady,
	StatusServed,
	StatusCancelled,
}

// IsValid проверяет, входит ли значение в перечисление статусов.
func (s OrderStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal — заказ в терминальном статусе больше не считается активным.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusServed || s == StatusCancelled
}

// CanTransitionTo описывает матрицу переходов. Сейчас разрешен любой переход
// между известными статусами, включая обратные; матрица вынесена отдельно,
// чтобы при необходимости ужесточить ее в одном месте.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s.IsValid() && next.IsValid()
}

// Order представляет заказ клиента. Заказы никогда не удаляются.
type Order struct {
	ID               int64           `json:"-"`
	Number           string          `json:"orderId"`
	UserID           *int64          `json:"userId,omitempty"`
	CustomerName     string          `json:"customerName"`
	Lines            []OrderLine     `json:"items"`
	Status           OrderStatus     `json:"status"`
	History          []StatusChange  `json:"statusHistory"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	CreatedAt        time.Time       `json:"createdAt"`
	EstimatedReadyAt time.Time       `json:"estimatedReadyTime"`
	ActualReadyAt    *time.Time      `json:"actualReadyTime,omitempty"`
	ServedAt         *time.Time      `json:"servedTime,omitempty"`
}

// OrderLine — снимок позиции меню на момент оформления заказа.
// Имя и цена копируются из корзины и не меняются при последующем
// редактировании или удалении позиции меню.
type OrderLine struct {
	ID             int64           `json:"-"`
	MenuItemID     string          `json:"itemId"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Customizations string          `json:"customizations,omitempty"`
}

// StatusChange — запись в истории статусов заказа. История append-only:
// каждый переход добавляет ровно одну запись.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}
