// Package replica encodes replicated entity state for the network and
// predicts it between updates. A StateTemplate describes an entity type as an
// ordered list of ValueTemplates; each template quantizes one Value to a fixed
// number of bits, decides whether a change is worth sending, and
// extrapolates the value forward in time from recent samples.
package replica

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags the variant of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBoolean
	KindFloat
	KindVector4
	KindTransform
	KindBodyState
)

var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindBoolean:   "boolean",
	KindFloat:     "float",
	KindVector4:   "vector4",
	KindTransform: "transform",
	KindBodyState: "bodystate",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an immutable snapshot of one replicated property. The variant set
// is closed: Boolean, Float, Vector4, Transform and BodyState.
//
// Values are plain Go values boxed in the interface, so any number of holders
// (send queues, history rings, render interpolation) can share one without
// copying or risking a write.
type Value interface {
	Kind() Kind
	isValue()
}

type Boolean bool

type Float float32

type Vector4 mgl32.Vec4

// Transform is a pose. Position.W is not replicated and reads back as 1.
type Transform struct {
	Position mgl32.Vec4
	Rotation mgl32.Quat
}

// BodyState is a rigid body pose with its velocities. The W components of the
// velocities are not replicated and read back as 0.
type BodyState struct {
	Transform       Transform
	LinearVelocity  mgl32.Vec4
	AngularVelocity mgl32.Vec4
}

func (Boolean) Kind() Kind   { return KindBoolean }
func (Float) Kind() Kind     { return KindFloat }
func (Vector4) Kind() Kind   { return KindVector4 }
func (Transform) Kind() Kind { return KindTransform }
func (BodyState) Kind() Kind { return KindBodyState }

func (Boolean) isValue()   {}
func (Float) isValue()     {}
func (Vector4) isValue()   {}
func (Transform) isValue() {}
func (BodyState) isValue() {}

// Vec4 returns the vector as an mgl32 vector.
func (v Vector4) Vec4() mgl32.Vec4 { return mgl32.Vec4(v) }

// KindOf returns the kind of v, or KindInvalid for nil.
func KindOf(v Value) Kind {
	if v == nil {
		return KindInvalid
	}
	return v.Kind()
}

// As reads v as the variant T.
func As[T Value](v Value) (T, error) {
	x, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, KindOf(zero), KindOf(v))
	}
	return x, nil
}

// must is As for template internals, where a wrong variant can only come from
// a caller bypassing StateTemplate validation.
func must[T Value](v Value) T {
	x, ok := v.(T)
	if !ok {
		var zero T
		panic(&MismatchError{Index: -1, Want: KindOf(zero), Got: KindOf(v)})
	}
	return x
}
