package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/formfind/internal/mesh"
)

type ExportData struct {
	Run   *RunMetadata `json:"run,omitempty"`
	Name  string       `json:"name"`
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// ExportJSON writes a mesh with its solver outputs as one JSON document.
// meta may be nil for meshes that were never stored.
func ExportJSON(w io.Writer, meta *RunMetadata, m *mesh.CableMesh) error {
	data := ExportData{
		Run:   meta,
		Name:  m.Name,
		Nodes: NodeRecords(m),
		Edges: EdgeRecords(m),
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
