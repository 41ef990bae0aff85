package bufferpool

import "errors"

var (
	ErrPoolExhausted  = errors.New("bufferpool: no unpinned frame available")
	ErrPageNotFound   = errors.New("bufferpool: page is not resident")
	ErrInvalidRequest = errors.New("bufferpool: invalid request")
	ErrPageInUse      = errors.New("bufferpool: page is pinned")
	ErrInvalidState   = errors.New("bufferpool: inconsistent frame state")
)
