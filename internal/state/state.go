// Package state tracks the last observed value and classifies updates.
package state

// EffectKind classifies the outcome of an update
type EffectKind int

const (
	// Initialized means nothing was stored before the update
	Initialized EffectKind = iota
	// Replaced means a different value was stored and got overwritten
	Replaced
	// Unchanged means the stored value equals the new value
	Unchanged
)

// String returns the lowercase name of the kind
func (k EffectKind) String() string {
	switch k {
	case Initialized:
		return "initialized"
	case Replaced:
		return "replaced"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// UpdateEffect is the result of comparing a new value against the stored one.
// Previous is only meaningful when Kind is Replaced.
type UpdateEffect[T comparable] struct {
	Kind     EffectKind
	Previous T
}

// Changed reports whether the update should be announced
func (e UpdateEffect[T]) Changed() bool {
	return e.Kind == Initialized || e.Kind == Replaced
}

// String returns the kind name
func (e UpdateEffect[T]) String() string {
	return e.Kind.String()
}

// State holds at most one value. The zero value is uninitialized and
// ready to use. It is not safe for concurrent use.
type State[T comparable] struct {
	value T
	set   bool
}

// Uninitialized returns an empty State
func Uninitialized[T comparable]() *State[T] {
	return &State[T]{}
}

// Update stores v and reports how it relates to the previously stored value
func (s *State[T]) Update(v T) UpdateEffect[T] {
	if !s.set {
		s.value, s.set = v, true
		return UpdateEffect[T]{Kind: Initialized}
	}
	if s.value == v {
		return UpdateEffect[T]{Kind: Unchanged}
	}
	old := s.value
	s.value = v
	return UpdateEffect[T]{Kind: Replaced, Previous: old}
}

// Current returns the stored value and whether one is set
func (s *State[T]) Current() (T, bool) {
	return s.value, s.set
}
