package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/proctree/pkg/errors"
)

// Supported file formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// =============================================================================
// Validation
// =============================================================================

// Validate checks that every node has a non-empty, unique ID.
// Edges are not checked against the node set: edges that reference unknown
// nodes are tolerated here and ignored by the hierarchy reducer.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return perrors.New(perrors.ErrCodeInvalidGraph, "node %d: id must not be empty", i)
		}
		if seen[n.ID] {
			return perrors.New(perrors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// Marshal encodes a graph as indented JSON.
// Node and edge order are preserved.
func Marshal(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a validated Graph.
func Unmarshal(data []byte) (Graph, error) {
	return Read(bytes.NewReader(data), FormatJSON)
}

// Write writes a graph as JSON to an io.Writer.
func Write(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a graph in the given format from r and validates it.
func Read(r io.Reader, format string) (Graph, error) {
	var g Graph
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&g); err != nil {
			return Graph{}, perrors.Wrap(perrors.ErrCodeInvalidGraph, err, "decode json")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&g); err != nil {
			return Graph{}, perrors.Wrap(perrors.ErrCodeInvalidGraph, err, "decode toml")
		}
	default:
		return Graph{}, perrors.New(perrors.ErrCodeInvalidFormat, "unsupported graph format %q (must be json or toml)", format)
	}
	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// ReadFile reads a graph file, choosing the decoder from the file extension.
// Files without a recognized extension are decoded as JSON.
func ReadFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{}, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatForPath(path))
}

// WriteFile writes a graph to a JSON file.
func WriteFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// FormatForPath maps a file extension to a graph format.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}
