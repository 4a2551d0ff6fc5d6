package repository

import "errors"

var (
	// ErrStaleVersion запись изменилась между чтением и записью
	ErrStaleVersion = errors.New("stale record version")
	// ErrNotFound запись для изменения не найдена
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate нарушен уникальный индекс
	ErrDuplicate = errors.New("duplicate record")
)
