package pgstore

import "errors"

var (
	ErrFailedToQuery   = errors.New("pgstore: query failed")
	ErrFailedToBegin   = errors.New("pgstore: failed to begin transaction")
	ErrFailedToCommit  = errors.New("pgstore: failed to commit transaction")
	ErrFailedToCollect = errors.New("pgstore: failed to read rows")
)
