package db

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrRoomConflict  = errors.New("room already booked for that slot")
	ErrDuplicateRoom = errors.New("a room with this name already exists")
)
