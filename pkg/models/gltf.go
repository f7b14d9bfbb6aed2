package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
)

// GLTFLoader loads glTF/GLB files into a Mesh.
type GLTFLoader struct {
	// FlipV converts glTF's top-left UV origin to the bottom-left OBJ
	// convention so both formats sample textures the same way.
	FlipV bool
}

// NewGLTFLoader creates a loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{FlipV: true}
}

// LoadGLTF loads a .gltf or .glb file with the default loader.
func LoadGLTF(path string) (*Mesh, image.Image, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads every triangle primitive in the document into one mesh and
// decodes the lowest-indexed image the file carries. Texture coordinates
// are kept only when every primitive provides them. The returned image is
// nil when the file has none.
func (l *GLTFLoader) Load(path string) (*Mesh, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := l.fromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}
	return mesh, firstImage(doc, filepath.Dir(path)), nil
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	var b meshBuilder
	b.textured = true

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, &b); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if !b.textured {
		b.texcoords = nil
	}
	return NewMesh(name, b.positions, b.texcoords, b.indices)
}

type meshBuilder struct {
	positions []float64
	texcoords []float64
	indices   []int
	textured  bool
}

// processMesh appends the geometry of every triangle primitive in m.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, b *meshBuilder) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readFloatAccessor(doc, posIdx, gltf.AccessorVec3)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}
		count := len(positions) / 3

		var uvs []float64
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readFloatAccessor(doc, uvIdx, gltf.AccessorVec2)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}
		if len(uvs) != count*2 {
			b.textured = false
			uvs = make([]float64, count*2)
		} else if l.FlipV {
			for i := 1; i < len(uvs); i += 2 {
				uvs[i] = 1 - uvs[i]
			}
		}

		base := len(b.positions) / 3
		b.positions = append(b.positions, positions...)
		b.texcoords = append(b.texcoords, uvs...)

		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				b.indices = append(b.indices, base+indices[i], base+indices[i+1], base+indices[i+2])
			}
		} else {
			for i := 0; i+2 < count; i += 3 {
				b.indices = append(b.indices, base+i, base+i+1, base+i+2)
			}
		}
	}
	return nil
}

// accessorView resolves the byte slice, start offset and stride for an
// accessor. gltf.Open has already loaded external buffers into Data.
func accessorView(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}
	if *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, 0, fmt.Errorf("buffer view %d out of range", *accessor.BufferView)
	}
	bv := doc.BufferViews[*accessor.BufferView]
	if bv.Buffer >= len(doc.Buffers) {
		return nil, 0, 0, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	if data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	start := bv.ByteOffset + accessor.ByteOffset
	stride := bv.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if accessor.Count > 0 {
		end := start + (accessor.Count-1)*stride + elemSize
		if end > len(data) {
			return nil, 0, 0, fmt.Errorf("accessor overruns buffer (%d > %d)", end, len(data))
		}
	}
	return data, start, stride, nil
}

// readFloatAccessor reads a float32 VEC2/VEC3 accessor into a flat slice.
func readFloatAccessor(doc *gltf.Document, accessorIdx int, want gltf.AccessorType) ([]float64, error) {
	if accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != want {
		return nil, fmt.Errorf("expected %v, got %v", want, accessor.Type)
	}
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", accessor.ComponentType)
	}

	n := 2
	if want == gltf.AccessorVec3 {
		n = 3
	}
	data, start, stride, err := accessorView(doc, accessor, n*4)
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, accessor.Count*n)
	for i := range accessor.Count {
		off := start + i*stride
		for j := range n {
			bits := binary.LittleEndian.Uint32(data[off+j*4:])
			out = append(out, float64(math.Float32frombits(bits)))
		}
	}
	return out, nil
}

// readIndices reads a scalar index accessor of any unsigned width.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorView(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	out := make([]int, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		switch size {
		case 1:
			out[i] = int(data[off])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(data[off:]))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return out, nil
}

// imageBytes returns the encoded bytes of every image in the document,
// keyed by image index. Images that cannot be resolved are skipped.
func imageBytes(doc *gltf.Document, dir string) map[int][]byte {
	images := make(map[int][]byte)
	for i, img := range doc.Images {
		switch {
		case img.BufferView != nil && *img.BufferView < len(doc.BufferViews):
			bv := doc.BufferViews[*img.BufferView]
			if bv.Buffer >= len(doc.Buffers) {
				continue
			}
			buf := doc.Buffers[bv.Buffer].Data
			end := bv.ByteOffset + bv.ByteLength
			if buf != nil && end <= len(buf) {
				images[i] = buf[bv.ByteOffset:end]
			}
		case img.URI != "":
			if data, err := os.ReadFile(filepath.Join(dir, img.URI)); err == nil {
				images[i] = data
			}
		}
	}
	return images
}

// firstImage decodes the lowest-indexed image that resolves and decodes,
// or returns nil.
func firstImage(doc *gltf.Document, dir string) image.Image {
	images := imageBytes(doc, dir)
	for i := range len(doc.Images) {
		data, ok := images[i]
		if !ok || len(data) == 0 {
			continue
		}
		if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			return img
		}
	}
	return nil
}
