package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion  = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic     = errors.New("invalid GLB magic number")
	errInvalidGLBVersion   = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk    = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI    = errors.New("invalid buffer URI")
	errBufferSizeMismatch  = errors.New("buffer size mismatch")
	errAccessorOutOfBounds = errors.New("accessor reads past the end of its buffer")
	errNoDocument          = errors.New("no document loaded")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads glTF/GLB documents and decodes accessors into flat float32 or index arrays.
type gltfParser interface {
	// Parse loads a .gltf or .glb file. GLB is detected by extension or magic number.
	// Relative buffer URIs resolve against the file's directory.
	//
	// Parameters:
	//   - path: path to the file
	//
	// Returns:
	//   - error: error if reading, decoding or buffer loading fails
	Parse(path string) error

	// ParseReader parses a document from a stream. Relative buffer URIs resolve against the
	// working directory.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is a GLB container
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed document, or nil before a successful parse.
	Document() *gltfDocument

	// ReadFloats decodes an accessor into a flat array of Count * components values.
	// Normalized integer components are mapped to [0,1] or [-1,1]; other integers are
	// converted by value.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []float32: the decoded values
	//   - int: components per element (1 for SCALAR, 2 for VEC2, ...)
	//   - error: error if the accessor is missing, sparse or out of bounds
	ReadFloats(accessorIndex int) ([]float32, int, error)

	// ReadIndices decodes a SCALAR unsigned accessor into triangle indices.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []uint32: the indices
	//   - error: error if the accessor is not an unsigned SCALAR or is out of bounds
	ReadIndices(accessorIndex int) ([]uint32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

// parseJSON decodes the document JSON and resolves its buffers.
func (p *gltfParserImpl) parseJSON(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// parseGLB splits a GLB container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("chunk length %d exceeds the %d bytes left: %w", chunk.ChunkLength, r.Len(), errBufferSizeMismatch)
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = body
		case gltfGLBChunkBIN:
			p.glbBinaryChunk = body
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}
	return p.parseJSON(jsonData)
}

// loadBuffers fills every buffer's Data from its URI or the GLB binary chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			data, err := p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// loadBufferURI reads a data: URI or a file relative to the document.
func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// elements returns the accessor, the raw bytes of each element in order and the
// per-component byte size.
func (p *gltfParserImpl) elements(accessorIndex int) (*gltfAccessor, [][]byte, int, error) {
	if p.document == nil {
		return nil, nil, 0, errNoDocument
	}
	doc := p.document
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, nil, 0, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &doc.Accessors[accessorIndex]
	if acc.Sparse != nil {
		return nil, nil, 0, fmt.Errorf("accessor %d: sparse accessors are not supported", accessorIndex)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, nil, 0, fmt.Errorf("accessor %d has no valid bufferView", accessorIndex)
	}

	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, nil, 0, fmt.Errorf("bufferView %d references missing buffer %d", *acc.BufferView, bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data

	componentSize := componentTypeSize(acc.ComponentType)
	components := accessorComponents(acc.Type)
	if componentSize == 0 || components == 0 {
		return nil, nil, 0, fmt.Errorf("accessor %d: unsupported layout %s/%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	elementSize := componentSize * components

	stride := elementSize
	if bv.ByteStride != nil {
		if *bv.ByteStride < 0 {
			return nil, nil, 0, fmt.Errorf("accessor %d negative byteStride: %w", accessorIndex, errAccessorOutOfBounds)
		}
		if *bv.ByteStride > 0 {
			stride = *bv.ByteStride
		}
	}
	if acc.Count < 0 || acc.ByteOffset < 0 || bv.ByteOffset < 0 {
		return nil, nil, 0, fmt.Errorf("accessor %d negative count or offset: %w", accessorIndex, errAccessorOutOfBounds)
	}

	// Every element takes at least one byte, so a larger count cannot fit. Bounding base and
	// stride by the buffer length first keeps the end offset from overflowing.
	if acc.ByteOffset > len(data) || bv.ByteOffset > len(data) || (acc.Count > 1 && stride > len(data)) {
		return nil, nil, 0, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorOutOfBounds)
	}
	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > len(data) || (acc.Count > 0 && base+(acc.Count-1)*stride+elementSize > len(data)) {
		return nil, nil, 0, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorOutOfBounds)
	}

	out := make([][]byte, acc.Count)
	for i := range out {
		start := base + i*stride
		if start < 0 || start+elementSize > len(data) {
			return nil, nil, 0, fmt.Errorf("accessor %d element %d: %w", accessorIndex, i, errAccessorOutOfBounds)
		}
		out[i] = data[start : start+elementSize]
	}
	return acc, out, componentSize, nil
}

func (p *gltfParserImpl) ReadFloats(accessorIndex int) ([]float32, int, error) {
	acc, elems, componentSize, err := p.elements(accessorIndex)
	if err != nil {
		return nil, 0, err
	}

	components := accessorComponents(acc.Type)
	out := make([]float32, 0, len(elems)*components)
	for _, e := range elems {
		for c := 0; c < components; c++ {
			out = append(out, decodeComponent(e[c*componentSize:], acc.ComponentType, acc.Normalized))
		}
	}
	return out, components, nil
}

func (p *gltfParserImpl) ReadIndices(accessorIndex int) ([]uint32, error) {
	acc, elems, _, err := p.elements(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor is not SCALAR: type=%s", acc.Type)
	}

	out := make([]uint32, len(elems))
	for i, e := range elems {
		switch acc.ComponentType {
		case gltfComponentTypeUnsignedByte:
			out[i] = uint32(e[0])
		case gltfComponentTypeUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(e))
		case gltfComponentTypeUnsignedInt:
			out[i] = binary.LittleEndian.Uint32(e)
		default:
			return nil, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
		}
	}
	return out, nil
}

// decodeComponent reads one little-endian component starting at b.
func decodeComponent(b []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentTypeUnsignedByte:
		if normalized {
			return float32(b[0]) / 255
		}
		return float32(b[0])
	case gltfComponentTypeByte:
		v := int8(b[0])
		if normalized {
			return max(float32(v)/127, -1)
		}
		return float32(v)
	case gltfComponentTypeUnsignedShort:
		v := binary.LittleEndian.Uint16(b)
		if normalized {
			return float32(v) / 65535
		}
		return float32(v)
	case gltfComponentTypeShort:
		v := int16(binary.LittleEndian.Uint16(b))
		if normalized {
			return max(float32(v)/32767, -1)
		}
		return float32(v)
	case gltfComponentTypeUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	default:
		return 0
	}
}

// componentTypeSize returns the byte size of a component type.
func componentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// accessorComponents returns the number of components of the vector accessor types.
// Matrix accessors are not vertex attributes and report 0.
func accessorComponents(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	default:
		return 0
	}
}
