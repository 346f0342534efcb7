package repository

import (
	"errors"
	"fmt"

	"taskMaster/internal/models"
)

var ErrNotFound = errors.New("запись не найдена")

// StoreError - сбой хранилища (ввод-вывод, недоступность, повреждённая строка)
type StoreError struct {
	Op         string
	Collection models.Collection
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("хранилище %s: %s: %s", e.Collection, e.Op, e.Err.Error())
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func Wrap(op string, collection models.Collection, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}
