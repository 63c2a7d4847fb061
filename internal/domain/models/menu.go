package models

import "github.com/shopspring/decimal"

// Category — раздел меню (например, "Pizze", "Bevande").
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
}

// MenuItem — позиция меню. Цена хранится как decimal, чтобы избежать
// накопления ошибок округления при подсчете сумм заказов.
type MenuItem struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}
