// Package apperr описывает таксономию ошибок ядра: ошибки загрузки,
// ограничение частоты, отсутствие данных, ошибки апгрейда и валидации.
// Проверять принадлежность к классу следует через errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch сетевая ошибка без доступного устаревшего значения в кеше.
	ErrFetch = errors.New("fetch failed")
	// ErrRateLimited удаленный API вернул 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound отсутствие данных (404), а не сбой.
	ErrNotFound = errors.New("not found")
	// ErrTransient временная ошибка, повтор остается на усмотрение вызывающего.
	ErrTransient = errors.New("transient failure")
	// ErrUpgrade апгрейд подписки не удался или план невалиден.
	ErrUpgrade = errors.New("upgrade failed")
	// ErrValidation вызывающий передал значение вне допустимого диапазона.
	ErrValidation = errors.New("validation failed")
	// ErrSuperseded ответ устарел: запрос был вытеснен более новым.
	ErrSuperseded = errors.New("superseded")
	// ErrUnauthorized действие требует входа в аккаунт.
	ErrUnauthorized = errors.New("login required")
)

// Validation оборачивает ErrValidation с описанием поля.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upgrade оборачивает причину в ErrUpgrade, сохраняя цепочку для errors.Is.
func Upgrade(cause error) error {
	if cause == nil {
		return ErrUpgrade
	}
	return fmt.Errorf("%w: %w", ErrUpgrade, cause)
}

// Fetch оборачивает причину в ErrFetch.
func Fetch(cause error) error {
	if cause == nil {
		return ErrFetch
	}
	return fmt.Errorf("%w: %w", ErrFetch, cause)
}

// UserMessage возвращает текст ошибки, пригодный для показа пользователю.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "too many requests, please slow down"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrUpgrade):
		return "upgrade failed, please try again"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrUnauthorized):
		return "please log in to continue"
	default:
		return "something went wrong, please retry"
	}
}
