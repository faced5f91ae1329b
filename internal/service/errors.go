package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindInternal      ErrorKind = "internal"
)

// Error - ошибка рабочего процесса ротаций. Details уходят вызывающему,
// чтобы он мог исправить запрос и повторить его
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf возвращает вид ошибки; все, что не *Error, считается внутренней ошибкой
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func authorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func conflictError(message string, details map[string]interface{}) *Error {
	return &Error{Kind: KindConflict, Message: message, Details: details}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// passThrough оставляет *Error как есть, остальное заворачивает во внутреннюю ошибку
func passThrough(message string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return internalError(message, err)
}
