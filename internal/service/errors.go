package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/slot_swap/internal/repository"
)

// ErrStaleVersion возвращают и слоты, и запросы обмена
const msgConcurrentUpdate = "record was modified concurrently"

// Kind машинно-различимый тип ошибки
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInvalidArgument Kind = "invalid_argument"
	KindConflict        Kind = "conflict"
	KindUnauthenticated Kind = "unauthenticated"
	KindInternal        Kind = "internal"
)

// Error ошибка сервиса с типом и сообщением для пользователя
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func InvalidArgument(msg string) error { return &Error{Kind: KindInvalidArgument, Message: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Message: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Message: msg} }

// Internal оборачивает ошибку хранилища
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf возвращает тип ошибки; всё неизвестное считается внутренней ошибкой
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	if errors.Is(err, repository.ErrStaleVersion) {
		return KindConflict
	}
	return KindInternal
}

// MessageOf возвращает сообщение, которое можно показать пользователю
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	if errors.Is(err, repository.ErrStaleVersion) {
		return msgConcurrentUpdate
	}
	return "internal error"
}

// storageErr переводит ошибку репозитория в ошибку сервиса
func storageErr(op string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	if errors.Is(err, repository.ErrStaleVersion) {
		return &Error{Kind: KindConflict, Message: msgConcurrentUpdate, Err: err}
	}
	return Internal(op, err)
}
