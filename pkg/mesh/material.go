package mesh

// Material is an opaque material reference. The exporter only compares
// materials by identity; the fields are read by the document assembler.
type Material struct {
	Name        string
	Texture     string  // Source texture path as stored in the model
	DoubleSided bool    // Render both faces
	AlphaCutoff float32 // Alpha mask threshold, 0 for opaque
}

// Renderer pairs a mesh with its material slots, one per submesh.
// A nil slot, or a missing one, means the submesh has no material.
type Renderer struct {
	Mesh      *Mesh
	Materials []*Material
}

// MaterialAt returns the material slot of submesh i, or nil.
func (r *Renderer) MaterialAt(i int) *Material {
	if i < 0 || i >= len(r.Materials) {
		return nil
	}
	return r.Materials[i]
}

// IndexOfMaterial returns the position of m in list by identity, or -1.
func IndexOfMaterial(list []*Material, m *Material) int {
	if m == nil {
		return -1
	}
	for i, candidate := range list {
		if candidate == m {
			return i
		}
	}
	return -1
}
