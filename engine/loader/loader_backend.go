package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"
)

// importedMesh is one triangle primitive decoded from a model file, in schema layout.
type importedMesh struct {
	name       string
	attributes map[geometry.AttributeName][]float32
	faces      []uint32
}

// loaderBackend reads a model format into importedMesh values.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports every triangle primitive from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - []importedMesh: one entry per primitive
	//   - error: error if loading fails
	Load(path string) ([]importedMesh, error)

	// LoadReader imports every triangle primitive from a stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - []importedMesh: one entry per primitive
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool) ([]importedMesh, error)
}
