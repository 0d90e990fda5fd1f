// internal/core/domain/apperr/errors.go
package apperr

import (
	"errors"
	"fmt"
)

// Kind - категория ошибки
type Kind string

const (
	KindNetwork  Kind = "network"  // транспорт или таймаут
	KindUpstream Kind = "upstream" // внешний API ответил не 2xx
	KindParse    Kind = "parse"    // некорректный JSON от внешнего API
	KindDomain   Kind = "domain"   // некорректный ввод пользователя
	KindUnknown  Kind = "unknown"
)

// Error - ошибка с категорией и операцией
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создает ошибку заданной категории
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Network оборачивает ошибку транспорта
func Network(op string, err error) *Error {
	return New(KindNetwork, op, err)
}

// Upstream - внешний API вернул ошибочный статус
func Upstream(op string, format string, args ...interface{}) *Error {
	return New(KindUpstream, op, fmt.Errorf(format, args...))
}

// Parse оборачивает ошибку разбора ответа
func Parse(op string, err error) *Error {
	return New(KindParse, op, err)
}

// Domain - ошибка входных данных
func Domain(op string, format string, args ...interface{}) *Error {
	return New(KindDomain, op, fmt.Errorf(format, args...))
}

// KindOf возвращает категорию первой *Error в цепочке
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is проверяет категорию ошибки
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
