package config

import "errors"

// ErrInvalidValue is returned when an environment variable holds an unusable value.
var ErrInvalidValue = errors.New("config: invalid value")
