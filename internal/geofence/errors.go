package geofence

import "errors"

// ErrInvalidInput - некорректная точка или метка времени наблюдения
var ErrInvalidInput = errors.New("invalid input")
