package models

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// objCorner is one "v/vt/vn" reference from a face line, resolved to
// zero-based indices. vt is -1 when absent.
type objCorner struct {
	v, vt int
}

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	return ParseOBJ(f, filepath.Base(path))
}

// ParseOBJ reads OBJ geometry from r. Only v, vt and f records are used;
// polygons are fan-triangulated. Vertices are de-indexed by their
// (position, texcoord) pair so the returned texcoords run parallel to the
// positions. Texcoords are dropped unless every face corner has one.
func ParseOBJ(r io.Reader, name string) (*Mesh, error) {
	var (
		positions [][3]float64
		texcoords [][2]float64
		faces     [][3]objCorner
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "v":
			vals, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			positions = append(positions, [3]float64{vals[0], vals[1], vals[2]})
		case "vt":
			vals, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			texcoords = append(texcoords, [2]float64{vals[0], vals[1]})
		case "f":
			if len(parts) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", lineNo)
			}
			corners := make([]objCorner, 0, len(parts)-1)
			for _, ref := range parts[1:] {
				c, err := parseCorner(ref, len(positions), len(texcoords))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				corners = append(corners, c)
			}
			for i := 1; i+1 < len(corners); i++ {
				faces = append(faces, [3]objCorner{corners[0], corners[i], corners[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	textured := len(faces) > 0
	for _, f := range faces {
		for _, c := range f {
			if c.vt < 0 {
				textured = false
			}
		}
	}

	var (
		flatPos []float64
		flatUV  []float64
		indices = make([]int, 0, len(faces)*3)
		seen    = make(map[objCorner]int)
	)
	for _, f := range faces {
		for _, c := range f {
			if !textured {
				c.vt = -1
			}
			idx, ok := seen[c]
			if !ok {
				idx = len(flatPos) / 3
				seen[c] = idx
				p := positions[c.v]
				flatPos = append(flatPos, p[0], p[1], p[2])
				if textured {
					t := texcoords[c.vt]
					flatUV = append(flatUV, t[0], t[1])
				}
			}
			indices = append(indices, idx)
		}
	}

	return NewMesh(name, flatPos, flatUV, indices)
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	vals := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", fields[i], err)
		}
		vals[i] = v
	}
	return vals, nil
}

// parseCorner resolves "v", "v/vt", "v//vn" or "v/vt/vn". OBJ indices are
// one-based; negative values count back from the latest element.
func parseCorner(ref string, nv, nvt int) (objCorner, error) {
	fields := strings.Split(ref, "/")
	v, err := resolveIndex(fields[0], nv)
	if err != nil {
		return objCorner{}, fmt.Errorf("vertex %q: %w", ref, err)
	}
	c := objCorner{v: v, vt: -1}
	if len(fields) > 1 && fields[1] != "" {
		vt, err := resolveIndex(fields[1], nvt)
		if err != nil {
			return objCorner{}, fmt.Errorf("texcoord %q: %w", ref, err)
		}
		c.vt = vt
	}
	return c, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, fmt.Errorf("%w: index 0", ErrInvalidMesh)
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("%w: index %s out of range [1,%d]", ErrInvalidMesh, s, count)
	}
	return i, nil
}

// Load reads a mesh by file extension. For glTF files the first embedded
// or referenced image is returned as well; OBJ files never carry one.
func Load(path string) (*Mesh, image.Image, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		m, err := LoadOBJ(path)
		return m, nil, err
	case ".glb", ".gltf":
		return LoadGLTF(path)
	default:
		return nil, nil, fmt.Errorf("unsupported model format %q (use .obj, .gltf or .glb)", ext)
	}
}
