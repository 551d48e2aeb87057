package plancache

import "errors"

var (
	ErrWriteNotSupported = errors.New("plancache: underlying source is read-only")
	ErrSeedNotSupported  = errors.New("plancache: underlying source cannot be seeded")
)
