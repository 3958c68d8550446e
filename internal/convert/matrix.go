package convert

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rsm2gltf/pkg/formats"
)

// nodeMatrices returns the vertex transform of every node at timeMs.
func nodeMatrices(rsm *formats.RSM, timeMs float32) []mgl32.Mat4 {
	mats := make([]mgl32.Mat4, len(rsm.Nodes))
	for i := range rsm.Nodes {
		mats[i] = nodeMatrix(rsm, &rsm.Nodes[i], timeMs)
	}
	return mats
}

// nodeMatrix is the inherited hierarchy matrix followed by the node's own
// offset and 3x3 matrix. Children inherit only the hierarchy part.
func nodeMatrix(rsm *formats.RSM, node *formats.RSMNode, timeMs float32) mgl32.Mat4 {
	m := hierarchyMatrix(rsm, node, timeMs, make(map[string]bool))
	m = m.Mul4(mgl32.Translate3D(node.Offset[0], node.Offset[1], node.Offset[2]))
	return m.Mul4(mgl32.Mat3(node.Matrix).Mat4())
}

// hierarchyMatrix returns parent * Position * Rotation * Scale * KeyScale.
func hierarchyMatrix(rsm *formats.RSM, node *formats.RSMNode, timeMs float32, visited map[string]bool) mgl32.Mat4 {
	if visited[node.Name] {
		return mgl32.Ident4()
	}
	visited[node.Name] = true

	pos := mgl32.Vec3(node.Position)
	if len(node.PosKeys) > 0 {
		pos = interpolatePosKeys(node.PosKeys, timeMs)
	}
	local := mgl32.Translate3D(pos[0], pos[1], pos[2])

	// Keyframes replace the static axis-angle rotation.
	switch {
	case len(node.RotKeys) > 0:
		local = local.Mul4(interpolateRotKeys(node.RotKeys, timeMs).Mat4())
	case node.RotAngle != 0:
		axis := mgl32.Vec3(node.RotAxis)
		if axis.Len() > 1e-6 {
			local = local.Mul4(mgl32.HomogRotate3D(node.RotAngle, axis.Normalize()))
		}
	}

	local = local.Mul4(mgl32.Scale3D(node.Scale[0], node.Scale[1], node.Scale[2]))
	if len(node.ScaleKeys) > 0 {
		s := interpolateScaleKeys(node.ScaleKeys, timeMs)
		local = local.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}

	if node.Parent != "" && node.Parent != node.Name {
		if parent := rsm.NodeByName(node.Parent); parent != nil {
			return hierarchyMatrix(rsm, parent, timeMs, visited).Mul4(local)
		}
	}
	return local
}
