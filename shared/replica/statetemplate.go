package replica

import (
	"errors"
	"fmt"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/netconfig"
)

// StateTemplate is the schema of a replicated entity type: one ValueTemplate
// per field, matched to State values by position only. Reordering the
// templates changes the wire format.
//
// An update on the wire is sparse:
//
//	[presence mask, 1 bit per field][field 0 if present][field 1 if present]...
type StateTemplate struct {
	templates []ValueTemplate
}

func NewStateTemplate(templates ...ValueTemplate) (*StateTemplate, error) {
	if len(templates) > netconfig.MaxFields {
		return nil, fmt.Errorf("%w: %d fields, limit %d", ErrSchemaTooLarge, len(templates), netconfig.MaxFields)
	}
	for i, t := range templates {
		if t == nil {
			return nil, fmt.Errorf("replica: nil template at field %d", i)
		}
	}
	st := &StateTemplate{templates: make([]ValueTemplate, len(templates))}
	copy(st.templates, templates)
	return st, nil
}

// MustStateTemplate is NewStateTemplate for schemas fixed at compile time.
func MustStateTemplate(templates ...ValueTemplate) *StateTemplate {
	st, err := NewStateTemplate(templates...)
	if err != nil {
		panic(err)
	}
	return st
}

func (st *StateTemplate) Len() int {
	return len(st.templates)
}

func (st *StateTemplate) At(i int) ValueTemplate {
	return st.templates[i]
}

// Validate checks that s has one value of the expected kind per field.
func (st *StateTemplate) Validate(s *State) error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrSchemaMismatch)
	}
	if s.Len() != len(st.templates) {
		return fmt.Errorf("%w: state has %d values, schema has %d fields", ErrSchemaMismatch, s.Len(), len(st.templates))
	}
	for i, t := range st.templates {
		if k := KindOf(s.At(i)); k != t.Kind() {
			return &MismatchError{Index: i, Want: t.Kind(), Got: k}
		}
	}
	return nil
}

// Mask runs each field's threshold test of cur against base. held carries the
// per-field hold times for debouncing and may be nil. A nil base marks every
// field present.
func (st *StateTemplate) Mask(cur, base *State, held []float64) (Mask, error) {
	if err := st.Validate(cur); err != nil {
		return 0, err
	}
	if base == nil {
		return FullMask(len(st.templates)), nil
	}
	if err := st.Validate(base); err != nil {
		return 0, err
	}
	var m Mask
	for i, t := range st.templates {
		var h float64
		if i < len(held) {
			h = held[i]
		}
		if t.Threshold(base.At(i), cur.At(i), h) {
			m = m.With(i)
		}
	}
	return m, nil
}

// Pack writes the fields of cur that differ significantly from base, the last
// state the receiver is known to hold.
func (st *StateTemplate) Pack(w bitstream.Writer, cur, base *State) (Mask, error) {
	return st.PackDelta(w, cur, base, nil)
}

// PackDelta is Pack with per-field hold times.
func (st *StateTemplate) PackDelta(w bitstream.Writer, cur, base *State, held []float64) (Mask, error) {
	m, err := st.Mask(cur, base, held)
	if err != nil {
		return 0, err
	}
	return m, st.PackMask(w, cur, m)
}

// PackFull writes every field of cur.
func (st *StateTemplate) PackFull(w bitstream.Writer, cur *State) (Mask, error) {
	m := FullMask(len(st.templates))
	return m, st.PackMask(w, cur, m)
}

// PackMask writes the mask and then the fields it selects.
func (st *StateTemplate) PackMask(w bitstream.Writer, cur *State, m Mask) error {
	if err := st.Validate(cur); err != nil {
		return err
	}
	for i := range st.templates {
		var bit uint64
		if m.Has(i) {
			bit = 1
		}
		if err := writeBits(w, bit, 1); err != nil {
			return err
		}
	}
	for i, t := range st.templates {
		if !m.Has(i) {
			continue
		}
		if err := t.Pack(w, cur.At(i)); err != nil {
			return fmt.Errorf("pack field %d: %w", i, err)
		}
	}
	return nil
}

// Unpack reads a sparse update. The returned state holds only the present
// fields, in schema order.
func (st *StateTemplate) Unpack(r bitstream.Reader) (Mask, *State, error) {
	var m Mask
	for i := range st.templates {
		bit, err := readBits(r, 1)
		if err != nil {
			return 0, nil, fmt.Errorf("unpack mask: %w", err)
		}
		if bit != 0 {
			m = m.With(i)
		}
	}
	sparse := &State{}
	sparse.PackBegin()
	for i, t := range st.templates {
		if !m.Has(i) {
			continue
		}
		v, err := t.Unpack(r)
		if err != nil {
			return 0, nil, fmt.Errorf("unpack field %d: %w", i, err)
		}
		sparse.Pack(v)
	}
	return m, sparse, nil
}

// Apply merges a sparse update onto base: present fields come from sparse,
// absent ones keep their base value. base may be nil only for a full update.
func (st *StateTemplate) Apply(base *State, m Mask, sparse *State) (*State, error) {
	if base != nil {
		if err := st.Validate(base); err != nil {
			return nil, err
		}
	}
	out := &State{}
	out.PackBegin()
	sparse.UnpackBegin()
	for i, t := range st.templates {
		if !m.Has(i) {
			if base == nil {
				return nil, fmt.Errorf("%w: field %d absent", ErrMissingBaseline, i)
			}
			out.Pack(base.At(i))
			continue
		}
		v, err := sparse.Unpack()
		if errors.Is(err, ErrSequenceExhausted) {
			return nil, fmt.Errorf("%w: mask has %d fields, update has %d", ErrSchemaMismatch, m.Count(), sparse.Len())
		}
		if k := KindOf(v); k != t.Kind() {
			return nil, &MismatchError{Index: i, Want: t.Kind(), Got: k}
		}
		out.Pack(v)
	}
	if _, err := sparse.Unpack(); err == nil {
		return nil, fmt.Errorf("%w: update has more values than its mask", ErrSchemaMismatch)
	}
	return out, nil
}

// UnpackDelta reads a sparse update and merges it onto base.
func (st *StateTemplate) UnpackDelta(r bitstream.Reader, base *State) (*State, Mask, error) {
	m, sparse, err := st.Unpack(r)
	if err != nil {
		return nil, 0, err
	}
	s, err := st.Apply(base, m, sparse)
	if err != nil {
		return nil, 0, err
	}
	return s, m, nil
}

// Extrapolate predicts every field at t from up to three states ordered
// oldest to newest. sn2 and sn1 may be nil.
func (st *StateTemplate) Extrapolate(sn2 *State, tn2 float64, sn1 *State, tn1 float64, s0 *State, t0, t float64) (*State, error) {
	if err := st.Validate(s0); err != nil {
		return nil, err
	}
	if sn1 == nil {
		sn2 = nil
	}
	for _, s := range []*State{sn2, sn1} {
		if s == nil {
			continue
		}
		if err := st.Validate(s); err != nil {
			return nil, err
		}
	}
	out := &State{}
	out.PackBegin()
	for i, tmpl := range st.templates {
		var vn2, vn1 Value
		if sn2 != nil {
			vn2 = sn2.At(i)
		}
		if sn1 != nil {
			vn1 = sn1.At(i)
		}
		out.Pack(tmpl.Extrapolate(vn2, tn2, vn1, tn1, s0.At(i), t0, t))
	}
	return out, nil
}

// Blend moves every field of a towards b by k in [0, 1].
func (st *StateTemplate) Blend(a, b *State, k float32) (*State, error) {
	if err := st.Validate(a); err != nil {
		return nil, err
	}
	if err := st.Validate(b); err != nil {
		return nil, err
	}
	out := &State{}
	out.PackBegin()
	for i, t := range st.templates {
		out.Pack(t.Blend(a.At(i), b.At(i), k))
	}
	return out, nil
}

// Bits returns the encoded size of an update carrying the fields in m.
func (st *StateTemplate) Bits(m Mask) int {
	n := len(st.templates)
	for i, t := range st.templates {
		if m.Has(i) {
			n += t.Bits()
		}
	}
	return n
}
