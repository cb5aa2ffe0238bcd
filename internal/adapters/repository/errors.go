package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrSeasonNotFound = errors.New("season not found")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrFixture        = errors.New("fixture load failed")
)
