package config

import "errors"

// Sentinel errors for configuration loading.
var (
	ErrInvalid = errors.New("invalid config")
	ErrLoad    = errors.New("load config failed")
)
