package texts

import "sync/atomic"

// Holder publishes the current texts to concurrent readers.
type Holder struct {
	current atomic.Pointer[Texts]
}

func NewHolder(t Texts) *Holder {
	h := &Holder{}
	h.Set(t)
	return h
}

// Get returns a snapshot. A zero Holder yields the defaults.
func (h *Holder) Get() Texts {
	if t := h.current.Load(); t != nil {
		return *t
	}
	return Default()
}

func (h *Holder) Set(t Texts) {
	h.current.Store(&t)
}
