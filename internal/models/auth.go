package models

// RegisterRequest представляет структуру запроса регистрации.
// Регистрируются только городские аккаунты и компании,
// граждане смотрят публичные выдачи анонимно.
type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Role         Role   `json:"role"`
	Organization string `json:"organization"`
}

// LoginRequest представляет структуру запроса входа.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse - ответ на регистрацию или вход: токен и данные учётки.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
