package models

import "errors"

// ErrNotFound возвращается хранилищами, когда запись отсутствует
var ErrNotFound = errors.New("not found")
