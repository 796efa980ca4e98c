package netfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/formfind/internal/mesh"
)

type yamlNetwork struct {
	Name  string     `yaml:"name,omitempty"`
	Nodes []yamlNode `yaml:"nodes"`
	Edges []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	Key   string      `yaml:"key"`
	XYZ   [3]float64  `yaml:"xyz,flow"`
	Fixed bool        `yaml:"fixed,omitempty"`
	Load  *[3]float64 `yaml:"load,omitempty,flow"`
}

type yamlEdge struct {
	U        string  `yaml:"u"`
	V        string  `yaml:"v"`
	Q        float64 `yaml:"q"`
	Inactive bool    `yaml:"inactive,omitempty"`
}

func ParseYAML(data []byte) (*mesh.CableMesh, error) {
	var doc yamlNetwork
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse yaml network")
	}

	m := mesh.NewCableMesh(doc.Name)
	for i, n := range doc.Nodes {
		if err := m.AddVertex(n.Key, r3.Vec{X: n.XYZ[0], Y: n.XYZ[1], Z: n.XYZ[2]}); err != nil {
			return nil, errors.Wrapf(err, "node %d", i)
		}
		if n.Fixed {
			if err := m.SetAnchor(n.Key, true); err != nil {
				return nil, errors.Wrapf(err, "node %d", i)
			}
		}
		if n.Load != nil {
			if err := m.SetLoad(n.Key, r3.Vec{X: n.Load[0], Y: n.Load[1], Z: n.Load[2]}); err != nil {
				return nil, errors.Wrapf(err, "node %d", i)
			}
		}
	}
	for i, e := range doc.Edges {
		if err := m.AddEdge(e.U, e.V, e.Q); err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}
		if e.Inactive {
			if err := m.SetActive(e.U, e.V, false); err != nil {
				return nil, errors.Wrapf(err, "edge %d", i)
			}
		}
	}
	return m, nil
}

func MarshalYAML(m *mesh.CableMesh) ([]byte, error) {
	doc := yamlNetwork{Name: m.Name}
	for _, v := range m.Vertices() {
		n := yamlNode{
			Key:   v.Key,
			XYZ:   [3]float64{v.XYZ.X, v.XYZ.Y, v.XYZ.Z},
			Fixed: v.Anchor,
		}
		if v.Load != (r3.Vec{}) {
			n.Load = &[3]float64{v.Load.X, v.Load.Y, v.Load.Z}
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, e := range m.Edges() {
		doc.Edges = append(doc.Edges, yamlEdge{U: e.U, V: e.V, Q: e.Q, Inactive: !e.Active})
	}
	return yaml.Marshal(&doc)
}

// Load reads a network file, choosing the format by extension.
func Load(path string) (*mesh.CableMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read network")
	}

	var m *mesh.CableMesh
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	case ".fdn":
		m, err = ParseFDN(filepath.Base(path), string(data))
	default:
		return nil, errors.Errorf("unknown network format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Save writes m to path, choosing the format by extension.
func Save(path string, m *mesh.CableMesh) error {
	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = MarshalYAML(m)
	case ".fdn":
		var buf bytes.Buffer
		err = WriteFDN(&buf, m)
		data = buf.Bytes()
	default:
		return errors.Errorf("unknown network format %q", ext)
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write network")
}

// SaveYAML writes m as YAML regardless of the file extension.
func SaveYAML(path string, m *mesh.CableMesh) error {
	data, err := MarshalYAML(m)
	if err != nil {
		return errors.Wrap(err, "encode yaml network")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write network")
}
