package models

// Роли пользователей. Персонал управляет меню и очередью заказов.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// User представляет пользователя
type User struct {
	ID       int64
	Email    string
	Name     string
	PassHash []byte
	Role     string
}
