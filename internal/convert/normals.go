package convert

import (
	"github.com/Faultbox/rsm2gltf/pkg/formats"
	"github.com/Faultbox/rsm2gltf/pkg/math"
)

const smoothEpsilon float32 = 0.001

type smoothKey struct {
	pos  [3]int32
	back bool
}

// normals accumulates area-weighted face normals per vertex. Unless the
// model is flat shaded, vertices sharing a position on the same side are
// then averaged to hide texture seams.
func (b *builder) normals(positions []math.Vec3) []math.Vec3 {
	acc := make([]math.Vec3, len(positions))
	for _, tri := range b.triangles {
		p0 := positions[tri[0]]
		n := positions[tri[1]].Sub(p0).Cross(positions[tri[2]].Sub(p0))
		for _, idx := range tri {
			acc[idx] = acc[idx].Add(n)
		}
	}

	if b.rsm.Shading != formats.RSMShadingFlat {
		groups := make(map[smoothKey][]int)
		for i, p := range positions {
			key := smoothKey{
				pos:  [3]int32{int32(p.X / smoothEpsilon), int32(p.Y / smoothEpsilon), int32(p.Z / smoothEpsilon)},
				back: b.sources[i].back,
			}
			groups[key] = append(groups[key], i)
		}
		for _, idxs := range groups {
			if len(idxs) < 2 {
				continue
			}
			var sum math.Vec3
			for _, idx := range idxs {
				sum = sum.Add(acc[idx])
			}
			for _, idx := range idxs {
				acc[idx] = sum
			}
		}
	}

	for i, n := range acc {
		acc[i] = n.Normalize()
		if acc[i] == (math.Vec3{}) {
			acc[i] = math.Vec3{Y: 1}
		}
	}
	return acc
}
