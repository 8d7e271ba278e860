// Package merchanterr defines the Payme Merchant API protocol errors.
//
// Error codes and the uz/ru/en message triple are fixed by the protocol:
// Payme's client displays the localized messages to end users, so their
// structure and wording must be preserved exactly. Only Code and Data are
// machine-checked by the conformance suite.
package merchanterr

import "fmt"

// Message carries the three localized strings Payme requires.
type Message struct {
	UZ string `json:"uz"`
	RU string `json:"ru"`
	EN string `json:"en"`
}

// Error is a Payme Merchant API protocol error. It is always delivered
// inside a JSON-RPC error envelope over HTTP 200, never as a transport
// failure.
type Error struct {
	Code    int     `json:"code"`
	Message Message `json:"message"`
	Data    string  `json:"data,omitempty"`
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("payme error %d: %s: %v", e.Code, e.Message.EN, e.wrapped)
	}
	return fmt.Sprintf("payme error %d: %s", e.Code, e.Message.EN)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// WithData returns a copy of the error with diagnostic data attached.
func (e *Error) WithData(data string) *Error {
	clone := *e
	clone.Data = data
	return &clone
}

// Merchant API error codes.
const (
	CodeInvalidAmount        = -31001
	CodeTransactionNotFound  = -31003
	CodeTransactionCancelled = -31007
	CodeUnableToPerform      = -31008
	CodeOrderNotFound        = -31050
	CodeInvalidAccount       = -31050
	CodeAlreadyPaid          = -31060
	CodeOrderPending         = -31099
	CodeTransportError       = -32300
	CodeInternal             = -32400
	CodeParseError           = -32700
	CodeAccessDenied         = -32504
	CodeMethodNotFound       = -32601
)

func ErrInvalidAmount() *Error {
	return &Error{
		Code:    CodeInvalidAmount,
		Message: Message{UZ: "Noto'g'ri summa", RU: "Неверная сумма", EN: "Invalid amount"},
	}
}

func ErrOrderNotFound() *Error {
	return &Error{
		Code:    CodeOrderNotFound,
		Message: Message{UZ: "Buyurtma topilmadi", RU: "Заказ не найден", EN: "Order not found"},
	}
}

func ErrTransactionNotFound() *Error {
	return &Error{
		Code:    CodeTransactionNotFound,
		Message: Message{UZ: "Tranzaksiya topilmadi", RU: "Транзакция не найдена", EN: "Transaction not found"},
	}
}

func ErrInvalidAccount() *Error {
	return &Error{
		Code:    CodeInvalidAccount,
		Message: Message{UZ: "Noto'g'ri hisob", RU: "Неверный аккаунт", EN: "Invalid account"},
	}
}

func ErrUnableToPerform() *Error {
	return &Error{
		Code:    CodeUnableToPerform,
		Message: Message{UZ: "Tranzaksiyani amalga oshirish imkonsiz", RU: "Невозможно выполнить транзакцию", EN: "Unable to perform transaction"},
	}
}

func ErrTransactionCancelled() *Error {
	return &Error{
		Code:    CodeTransactionCancelled,
		Message: Message{UZ: "Tranzaksiya bekor qilingan", RU: "Транзакция отменена", EN: "Transaction cancelled"},
	}
}

func ErrAlreadyPaid() *Error {
	return &Error{
		Code:    CodeAlreadyPaid,
		Message: Message{UZ: "Buyurtma allaqachon to'langan", RU: "Заказ уже оплачен", EN: "Order already paid"},
	}
}

// ErrOrderPending rejects a second CreateTransaction for an order that
// already has a different transaction awaiting payment.
func ErrOrderPending() *Error {
	return &Error{
		Code:    CodeOrderPending,
		Message: Message{UZ: "Buyurtma allaqachon to'lovda", RU: "Заказ уже ожидает оплаты", EN: "Order already has pending payment"},
	}
}

func ErrAccessDenied() *Error {
	return &Error{
		Code:    CodeAccessDenied,
		Message: Message{UZ: "Ruxsat rad etildi", RU: "Доступ запрещен", EN: "Access denied"},
		Data:    "invalid_credentials",
	}
}

func ErrMethodNotFound() *Error {
	return &Error{
		Code:    CodeMethodNotFound,
		Message: Message{UZ: "Metod topilmadi", RU: "Метод не найден", EN: "Method not found"},
	}
}

func ErrInvalidPassword() *Error {
	return &Error{
		Code:    CodeInternal,
		Message: Message{UZ: "Noto'g'ri parol", RU: "Неверный пароль", EN: "Invalid password"},
	}
}

func ErrParse() *Error {
	return &Error{
		Code:    CodeParseError,
		Message: Message{UZ: "So'rovni o'qib bo'lmadi", RU: "Ошибка разбора запроса", EN: "Parse error"},
	}
}

// ErrInternal wraps an unexpected server-side fault. The underlying message
// goes into Data as a diagnostic; the envelope stays well-formed JSON-RPC.
func ErrInternal(err error) *Error {
	e := &Error{
		Code:    CodeInternal,
		Message: Message{UZ: "Ichki xatolik", RU: "Внутренняя ошибка", EN: "Internal error"},
		wrapped: err,
	}
	if err != nil {
		e.Data = err.Error()
	}
	return e
}
