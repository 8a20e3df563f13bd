package index

import (
	"errors"
	"sync/atomic"
)

// ErrUnavailable is returned when no index snapshot has been published yet.
var ErrUnavailable = errors.New("index not available")

// Holder publishes index snapshots to concurrent readers. Readers always see
// a complete snapshot; a rebuild swaps the pointer in one atomic store and
// in-flight searches keep using the snapshot they started with.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Get returns the current snapshot, or ErrUnavailable before the first publish.
func (h *Holder) Get() (*Index, error) {
	idx := h.current.Load()
	if idx == nil {
		return nil, ErrUnavailable
	}
	return idx, nil
}

// Publish makes idx the snapshot returned by subsequent Get calls.
func (h *Holder) Publish(idx *Index) {
	h.current.Store(idx)
}
