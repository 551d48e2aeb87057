package config

import "errors"

var (
	ErrParsingConfig   = errors.New("failed to parse environment variables into config")
	ErrInvalidConfig   = errors.New("configuration is invalid")
	ErrLoadingEnvFiles = errors.New("failed to load env files")
	ErrNilPointer      = errors.New("nil pointer provided to config loader")
)
