package session

// ExtensionTable keeps one value of per-client state for a subsystem, keyed
// by session id. It is owned by that subsystem and is not safe for
// concurrent use.
type ExtensionTable[T any] struct {
	entries map[int]*T
}

func NewExtensionTable[T any]() *ExtensionTable[T] {
	return &ExtensionTable[T]{entries: map[int]*T{}}
}

// Attach installs a zero value for id, replacing any previous entry.
func (t *ExtensionTable[T]) Attach(id int) *T {
	v := new(T)
	t.entries[id] = v
	return v
}

func (t *ExtensionTable[T]) Get(id int) (*T, bool) {
	v, ok := t.entries[id]
	return v, ok
}

func (t *ExtensionTable[T]) Detach(id int) {
	delete(t.entries, id)
}

func (t *ExtensionTable[T]) Len() int {
	return len(t.entries)
}

// Range visits every entry until fn returns false. Order is unspecified.
func (t *ExtensionTable[T]) Range(fn func(id int, v *T) bool) {
	for id, v := range t.entries {
		if !fn(id, v) {
			return
		}
	}
}
