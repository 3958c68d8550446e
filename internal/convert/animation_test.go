package convert

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/rsm2gltf/pkg/formats"
)

func TestKeySegment(t *testing.T) {
	frames := []int32{0, 100, 300}
	frame := func(i int) int32 { return frames[i] }

	tests := []struct {
		name   string
		time   float32
		i0, i1 int
		t      float32
	}{
		{"before first", -5, 0, 0, 0},
		{"at first", 0, 0, 1, 0},
		{"middle", 50, 0, 1, 0.5},
		{"second segment", 200, 1, 2, 0.5},
		{"at last", 300, 2, 2, 0},
		{"after last", 900, 2, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i0, i1, f := keySegment(len(frames), frame, tt.time)
			assert.Equal(t, tt.i0, i0)
			assert.Equal(t, tt.i1, i1)
			assert.InDelta(t, tt.t, f, 1e-6)
		})
	}
}

func TestInterpolateScaleKeys(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, interpolateScaleKeys(nil, 10))

	keys := []formats.RSMScaleKeyframe{
		{Frame: 0, Scale: [3]float32{1, 1, 1}},
		{Frame: 100, Scale: [3]float32{3, 1, 1}},
	}
	got := interpolateScaleKeys(keys, 50)
	assert.InDelta(t, 2, got[0], 1e-6)
	assert.InDelta(t, 1, got[1], 1e-6)
}

func TestInterpolateRotKeys(t *testing.T) {
	assert.Equal(t, mgl32.QuatIdent(), interpolateRotKeys(nil, 0))

	s := float32(gomath.Sqrt2 / 2)
	keys := []formats.RSMRotKeyframe{
		{Frame: 0, Quaternion: [4]float32{0, 0, 0, 1}},
		{Frame: 100, Quaternion: [4]float32{0, 0, s, s}},
	}
	// Halfway between identity and 90 degrees about Z.
	q := interpolateRotKeys(keys, 50)
	v := q.Rotate(mgl32.Vec3{1, 0, 0})
	c := float32(gomath.Cos(gomath.Pi / 4))
	assert.InDelta(t, c, v[0], 1e-5)
	assert.InDelta(t, c, v[1], 1e-5)
}

func TestHasAnimation(t *testing.T) {
	rsm := animatedModel()
	assert.True(t, HasAnimation(rsm))

	rsm.AnimLength = 0
	assert.False(t, HasAnimation(rsm))

	rsm = animatedModel()
	rsm.Nodes[0].RotKeys = rsm.Nodes[0].RotKeys[:1]
	assert.False(t, HasAnimation(rsm), "single key is a static pose")
}

func TestFrameTimes(t *testing.T) {
	rsm := &formats.RSM{
		AnimLength: 1000,
		Nodes: []formats.RSMNode{
			{RotKeys: []formats.RSMRotKeyframe{{Frame: 0}, {Frame: 500}, {Frame: 1000}, {Frame: 1500}}},
			{ScaleKeys: []formats.RSMScaleKeyframe{{Frame: 250}, {Frame: 500}}},
			{PosKeys: []formats.RSMPosKeyframe{{Frame: 750}}},
		},
	}
	assert.Equal(t, []int32{250, 500, 750, 1000}, frameTimes(rsm, 0))
	assert.Equal(t, []int32{500, 1000}, frameTimes(rsm, 2))
	assert.Equal(t, []int32{250, 500, 750, 1000}, frameTimes(rsm, 10))
}
