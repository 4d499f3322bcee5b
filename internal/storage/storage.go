// Package storage содержит ошибки уровня хранилища, общие для репозиториев и сервисов.
package storage

import "errors"

var (
	// ErrUserNotFound - пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists - пользователь с таким email уже существует.
	ErrUserExists = errors.New("user already exists")
	// ErrCustomerBound - id клиента платёжного провайдера уже привязан к другому пользователю.
	ErrCustomerBound = errors.New("customer id already bound to another user")
	// ErrCityLimit - достигнут лимит сохранённых городов.
	ErrCityLimit = errors.New("saved cities limit reached")
)
