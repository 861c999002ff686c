package models

type Role string // Роль вызывающего

const (
	RoleCity    Role = "CITY"    // Муниципальный заказчик
	RoleCompany Role = "COMPANY" // Компания-участник
	RolePublic  Role = "PUBLIC"  // Анонимный посетитель
)

// Principal - аутентифицированный вызывающий с ролью и идентичностью.
// Каждая операция жизненного цикла принимает его явным аргументом,
// сессионного состояния нет.
type Principal struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	Organization string `json:"organization,omitempty"`
}

// Anonymous возвращает принципала для неаутентифицированных запросов.
func Anonymous() Principal {
	return Principal{Role: RolePublic}
}

// User представляет учётную запись портала.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Organization string `json:"organization,omitempty"`
}
