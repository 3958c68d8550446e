// RSM (Resource Model) format parser for 3D models.
package formats

import (
	"errors"
	"fmt"
	"os"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
	ErrInvalidElementCount   = errors.New("invalid RSM element count")
)

// Parser limits for per-node element counts.
const (
	maxNodes     = 10000
	maxTextures  = 1000
	maxElements  = 100000
	maxKeyframes = 10000
	maxBoxes     = 1000
	nameLength   = 40
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// RSMShadingType represents the shading mode for rendering.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0 // No shading
	RSMShadingFlat   RSMShadingType = 1 // Flat shading
	RSMShadingSmooth RSMShadingType = 2 // Smooth shading
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord is a texture coordinate with its vertex color.
type RSMTexCoord struct {
	Color [4]uint8 // RGBA vertex color (v1.2+, white before)
	U, V  float32
}

// RSMFace is a triangle referencing node vertices and texcoords.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // Index into the node's TextureIDs
	TwoSide     int32  // Non-zero for double-sided faces
	SmoothGroup int32  // v1.2+
}

// RSMPosKeyframe is a position keyframe (v < 1.5).
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe is a rotation keyframe, quaternion in X, Y, Z, W order.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32
}

// RSMScaleKeyframe is a scale keyframe (v >= 1.5).
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one mesh node of the model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string  // Empty for the root
	TextureIDs []int32 // Indices into RSM.Textures

	Matrix   [9]float32 // 3x3 vertex matrix, row-major
	Offset   [3]float32 // Pivot offset
	Position [3]float32 // Translation
	RotAngle float32    // Radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe
}

// RSMVolumeBox is a collision volume.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // v1.3+
}

// RSM is a parsed model file.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // Milliseconds
	Shading     RSMShadingType
	Alpha       float32 // 0-1, v1.4+
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// ParseRSM parses a version 1.1 to 1.5 RSM model.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rd := newReader(data[4:])
	rsm := &RSM{Version: RSMVersion{Major: rd.u8(), Minor: rd.u8()}}
	if rsm.Version.Major != 1 || rsm.Version.Minor < 1 || rsm.Version.Minor > 5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rsm.AnimLength = rd.i32()
	rsm.Shading = RSMShadingType(rd.i32())
	rsm.Alpha = 1.0
	if rsm.Version.AtLeast(1, 4) {
		rsm.Alpha = float32(rd.u8()) / 255.0
	}
	rd.skip(16) // reserved

	textureCount, err := readCount(rd, maxTextures, "texture")
	if err != nil {
		return nil, err
	}
	rsm.Textures = make([]string, textureCount)
	for i := range rsm.Textures {
		rsm.Textures[i] = rd.fixedString(nameLength)
	}
	rsm.RootNode = rd.fixedString(nameLength)

	nodeCount := rd.i32()
	if rd.err != nil {
		return nil, rd.err
	}
	if nodeCount < 0 || nodeCount > maxNodes {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNodeCount, nodeCount)
	}
	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		if err := parseRSMNode(rd, rsm.Version, &rsm.Nodes[i]); err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, err)
		}
	}

	// Volume boxes are optional trailing data.
	if rd.remaining() >= 4 {
		boxCount, err := readCount(rd, maxBoxes, "volume box")
		if err != nil {
			return nil, err
		}
		rsm.VolumeBoxes = make([]RSMVolumeBox, boxCount)
		for i := range rsm.VolumeBoxes {
			box := &rsm.VolumeBoxes[i]
			box.Size = rd.vec3()
			box.Position = rd.vec3()
			box.Rotation = rd.vec3()
			if rsm.Version.AtLeast(1, 3) {
				box.Flag = rd.i32()
			}
		}
		if rd.err != nil {
			return nil, fmt.Errorf("parsing volume boxes: %w", rd.err)
		}
	}

	return rsm, nil
}

func parseRSMNode(rd *reader, version RSMVersion, node *RSMNode) error {
	node.Name = rd.fixedString(nameLength)
	node.Parent = rd.fixedString(nameLength)

	n, err := readCount(rd, maxTextures, "node texture")
	if err != nil {
		return err
	}
	node.TextureIDs = make([]int32, n)
	rd.read(node.TextureIDs)

	rd.read(&node.Matrix)
	node.Offset = rd.vec3()
	node.Position = rd.vec3()
	node.RotAngle = rd.f32()
	node.RotAxis = rd.vec3()
	node.Scale = rd.vec3()

	if n, err = readCount(rd, maxElements, "vertex"); err != nil {
		return err
	}
	node.Vertices = make([][3]float32, n)
	rd.read(node.Vertices)

	if n, err = readCount(rd, maxElements, "texcoord"); err != nil {
		return err
	}
	node.TexCoords = make([]RSMTexCoord, n)
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		tc.Color = [4]uint8{255, 255, 255, 255}
		if version.AtLeast(1, 2) {
			rd.read(&tc.Color)
		}
		tc.U = rd.f32()
		tc.V = rd.f32()
	}

	if n, err = readCount(rd, maxElements, "face"); err != nil {
		return err
	}
	node.Faces = make([]RSMFace, n)
	for i := range node.Faces {
		face := &node.Faces[i]
		rd.read(&face.VertexIDs)
		rd.read(&face.TexCoordIDs)
		rd.read(&face.TextureID)
		rd.skip(2) // padding
		face.TwoSide = rd.i32()
		if version.AtLeast(1, 2) {
			face.SmoothGroup = rd.i32()
		}
	}

	if !version.AtLeast(1, 5) {
		if n, err = readCount(rd, maxKeyframes, "position key"); err != nil {
			return err
		}
		node.PosKeys = make([]RSMPosKeyframe, n)
		for i := range node.PosKeys {
			node.PosKeys[i].Frame = rd.i32()
			node.PosKeys[i].Position = rd.vec3()
		}
	}

	if n, err = readCount(rd, maxKeyframes, "rotation key"); err != nil {
		return err
	}
	node.RotKeys = make([]RSMRotKeyframe, n)
	for i := range node.RotKeys {
		node.RotKeys[i].Frame = rd.i32()
		rd.read(&node.RotKeys[i].Quaternion)
	}

	if version.AtLeast(1, 5) {
		if n, err = readCount(rd, maxKeyframes, "scale key"); err != nil {
			return err
		}
		node.ScaleKeys = make([]RSMScaleKeyframe, n)
		for i := range node.ScaleKeys {
			node.ScaleKeys[i].Frame = rd.i32()
			node.ScaleKeys[i].Scale = rd.vec3()
		}
	}

	return rd.err
}

// readCount reads an element count and checks it against limit.
func readCount(rd *reader, limit int32, what string) (int, error) {
	n := rd.i32()
	if rd.err != nil {
		return 0, rd.err
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("%w: %d %s entries", ErrInvalidElementCount, n, what)
	}
	return int(n), nil
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// TotalVertexCount returns the number of vertices across all nodes.
func (rsm *RSM) TotalVertexCount() int {
	total := 0
	for i := range rsm.Nodes {
		total += len(rsm.Nodes[i].Vertices)
	}
	return total
}

// TotalFaceCount returns the number of faces across all nodes.
func (rsm *RSM) TotalFaceCount() int {
	total := 0
	for i := range rsm.Nodes {
		total += len(rsm.Nodes[i].Faces)
	}
	return total
}

// NodeByName returns the node with the given name, or nil.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}
