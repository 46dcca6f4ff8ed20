package replica

// State is one entity's replicated snapshot: its values in schema order. The
// sender rebuilds it each tick with PackBegin/Pack; the receiver walks it with
// UnpackBegin/Unpack.
type State struct {
	values []Value
	cursor int
}

func NewState(values ...Value) *State {
	s := &State{values: make([]Value, len(values))}
	copy(s.values, values)
	return s
}

// PackBegin clears the state for a new snapshot. The previous backing array
// is released rather than reused, so earlier views stay intact.
func (s *State) PackBegin() {
	s.values = make([]Value, 0, cap(s.values))
	s.cursor = 0
}

// Pack appends the next value in schema order.
func (s *State) Pack(v Value) {
	s.values = append(s.values, v)
}

// UnpackBegin rewinds the read cursor.
func (s *State) UnpackBegin() {
	s.cursor = 0
}

// Unpack returns the next value and advances the cursor.
func (s *State) Unpack() (Value, error) {
	if s.cursor >= len(s.values) {
		return nil, ErrSequenceExhausted
	}
	v := s.values[s.cursor]
	s.cursor++
	return v, nil
}

func (s *State) Len() int {
	return len(s.values)
}

// At returns the value at schema position i.
func (s *State) At(i int) Value {
	return s.values[i]
}

// Values returns a copy of the values.
func (s *State) Values() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

// Clone returns an independent state with the same values and a fresh cursor.
func (s *State) Clone() *State {
	return NewState(s.values...)
}
