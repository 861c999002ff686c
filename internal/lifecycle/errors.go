package lifecycle

import "errors"

type ErrorKind string // Типизированная причина отказа операции

const (
	InvalidState   ErrorKind = "InvalidState"   // Операция недопустима в текущем статусе
	DeadlinePassed ErrorKind = "DeadlinePassed" // Срок подачи заявок истёк
	DuplicateBid   ErrorKind = "DuplicateBid"   // Компания уже подала заявку на этот тендер
	NotFound       ErrorKind = "NotFound"       // Сущность не найдена или не принадлежит родителю
	Forbidden      ErrorKind = "Forbidden"      // Роль или идентичность вызывающего не даёт права
	InvalidInput   ErrorKind = "InvalidInput"   // Некорректные значения полей
)

// Error - отказ операции жизненного цикла с типизированной причиной.
// Движок никогда не паникует на ожидаемых отказах, только возвращает Error;
// перевод причины в HTTP-ответ - обязанность шлюза.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError создает новый отказ с причиной и сообщением.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// IsKind проверяет, что ошибка является отказом движка с данной причиной.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
