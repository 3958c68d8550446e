package meshexport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/rsm2gltf/pkg/math"
)

// ErrUnknownAxis is returned by ParseAxis for an unrecognised axis name.
var ErrUnknownAxis = errors.New("unknown axis")

// AxisInverter converts a vector between the source and glTF coordinate
// systems. Implementations must be pure: the same input always yields the
// same output.
type AxisInverter interface {
	InvertVector3(v math.Vec3) math.Vec3
}

// AxisInverterFunc adapts a function to AxisInverter.
type AxisInverterFunc func(v math.Vec3) math.Vec3

// InvertVector3 calls f(v).
func (f AxisInverterFunc) InvertVector3(v math.Vec3) math.Vec3 {
	return f(v)
}

// Standard inverters. Mirroring a single axis flips handedness, which the
// exporter compensates for by reversing triangle winding.
var (
	Identity AxisInverter = AxisInverterFunc(func(v math.Vec3) math.Vec3 { return v })
	ReverseX AxisInverter = AxisInverterFunc(func(v math.Vec3) math.Vec3 { return math.Vec3{X: -v.X, Y: v.Y, Z: v.Z} })
	ReverseY AxisInverter = AxisInverterFunc(func(v math.Vec3) math.Vec3 { return math.Vec3{X: v.X, Y: -v.Y, Z: v.Z} })
	ReverseZ AxisInverter = AxisInverterFunc(func(v math.Vec3) math.Vec3 { return math.Vec3{X: v.X, Y: v.Y, Z: -v.Z} })
)

// ParseAxis maps "x", "y", "z" to the matching mirror and "none" (or "")
// to Identity.
func ParseAxis(name string) (AxisInverter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x":
		return ReverseX, nil
	case "y":
		return ReverseY, nil
	case "z":
		return ReverseZ, nil
	case "", "none":
		return Identity, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAxis, name)
	}
}
