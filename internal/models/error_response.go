package models

// ErrorResponse - транспортная ошибка портала: HTTP-статус и причина,
// которая уходит клиенту в поле reason. Статус в тело не сериализуется.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"reason"`
}

// NewErrorResponse создает новую транспортную ошибку.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
	}
}

// Error реализует интерфейс error.
func (e *ErrorResponse) Error() string {
	return e.Message
}
