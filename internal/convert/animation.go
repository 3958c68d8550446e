package convert

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rsm2gltf/pkg/formats"
)

// keySegment finds the keys surrounding timeMs. Before the first key and
// after the last one the nearest key is held.
func keySegment(n int, frame func(int) int32, timeMs float32) (i0, i1 int, t float32) {
	for i := 0; i < n; i++ {
		if float32(frame(i)) <= timeMs {
			continue
		}
		if i == 0 {
			return 0, 0, 0
		}
		i0, i1 = i-1, i
		if span := float32(frame(i1) - frame(i0)); span > 0 {
			t = (timeMs - float32(frame(i0))) / span
		}
		return i0, i1, t
	}
	return n - 1, n - 1, 0
}

func keyQuat(q [4]float32) mgl32.Quat {
	return mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}.Normalize()
}

// interpolateRotKeys slerps rotation keyframes at timeMs.
func interpolateRotKeys(keys []formats.RSMRotKeyframe, timeMs float32) mgl32.Quat {
	if len(keys) == 0 {
		return mgl32.QuatIdent()
	}
	i0, i1, t := keySegment(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	q0 := keyQuat(keys[i0].Quaternion)
	if i0 == i1 {
		return q0
	}
	return mgl32.QuatSlerp(q0, keyQuat(keys[i1].Quaternion), t).Normalize()
}

// interpolateScaleKeys interpolates scale keyframes linearly.
func interpolateScaleKeys(keys []formats.RSMScaleKeyframe, timeMs float32) mgl32.Vec3 {
	if len(keys) == 0 {
		return mgl32.Vec3{1, 1, 1}
	}
	i0, i1, t := keySegment(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	return lerp(keys[i0].Scale, keys[i1].Scale, t)
}

// interpolatePosKeys interpolates position keyframes linearly.
func interpolatePosKeys(keys []formats.RSMPosKeyframe, timeMs float32) mgl32.Vec3 {
	if len(keys) == 0 {
		return mgl32.Vec3{}
	}
	i0, i1, t := keySegment(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	return lerp(keys[i0].Position, keys[i1].Position, t)
}

func lerp(a, b [3]float32, t float32) mgl32.Vec3 {
	va, vb := mgl32.Vec3(a), mgl32.Vec3(b)
	return va.Add(vb.Sub(va).Mul(t))
}

// HasAnimation checks if an RSM model has any animation keyframes.
// Models with only 1 keyframe are static poses, not animations.
func HasAnimation(rsm *formats.RSM) bool {
	if rsm.AnimLength <= 0 {
		return false
	}
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		if len(node.RotKeys) > 1 || len(node.PosKeys) > 1 || len(node.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}

// frameTimes returns the distinct keyframe times in (0, AnimLength], in
// ascending order. When limit > 0 and there are more frames, an evenly
// spaced subset ending at the last frame is kept.
func frameTimes(rsm *formats.RSM, limit int) []int32 {
	seen := make(map[int32]bool)
	add := func(frame int32) {
		if frame > 0 && frame <= rsm.AnimLength {
			seen[frame] = true
		}
	}
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		for _, k := range node.RotKeys {
			add(k.Frame)
		}
		for _, k := range node.PosKeys {
			add(k.Frame)
		}
		for _, k := range node.ScaleKeys {
			add(k.Frame)
		}
	}

	times := make([]int32, 0, len(seen))
	for frame := range seen {
		times = append(times, frame)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	if limit <= 0 || len(times) <= limit {
		return times
	}
	sampled := make([]int32, limit)
	for i := range sampled {
		sampled[i] = times[(i+1)*len(times)/limit-1]
	}
	return sampled
}
