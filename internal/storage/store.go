package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	nodesFile    = "nodes.csv"
	edgesFile    = "edges.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Backend   string             `json:"backend"`
	Nodes     int                `json:"nodes"`
	Edges     int                `json:"edges"`
	Fixed     int                `json:"fixed"`
	Metrics   map[string]float64 `json:"metrics"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Save stores a solved mesh. source names where the network came from: a
// file path or a generator preset.
func (s *Store) Save(source string, m *mesh.CableMesh, res *fd.Result, samples []metrics.Sample) (string, error) {
	name := unsafeName.ReplaceAllString(m.Name, "-")
	if name == "" {
		name = "run"
	}
	now := time.Now()
	if err := s.Init(); err != nil {
		return "", errors.Wrap(err, "create store")
	}
	var runID, runDir string
	for stamp := now.UnixNano(); ; stamp++ {
		runID = fmt.Sprintf("%s_%d", name, stamp)
		runDir = filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", errors.Wrap(err, "create run dir")
		}
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      m.Name,
		Source:    source,
		Timestamp: now,
		Backend:   res.Backend,
		Nodes:     len(res.Vertices),
		Edges:     len(res.Forces),
		Fixed:     len(res.Fixed),
		Metrics:   make(map[string]float64, len(samples)),
	}
	for _, smp := range samples {
		meta.Metrics[smp.Name] = smp.Value
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, nodesFile), func(w io.Writer) error {
		return WriteNodesCSV(w, m)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, edgesFile), func(w io.Writer) error {
		return WriteEdgesCSV(w, m)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	if err := fn(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", filepath.Base(path))
	}
	return errors.Wrapf(f.Close(), "close %s", filepath.Base(path))
}

// List returns all stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode metadata of %s", runID)
	}

	return &meta, nil
}

func (s *Store) LoadNodes(runID string) ([]NodeRecord, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, nodesFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load nodes of %s", runID)
	}
	defer f.Close()
	return ReadNodesCSV(f)
}

func (s *Store) LoadEdges(runID string) ([]EdgeRecord, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, edgesFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load edges of %s", runID)
	}
	defer f.Close()
	return ReadEdgesCSV(f)
}

// LoadMesh rebuilds the solved mesh of a run, outputs included.
func (s *Store) LoadMesh(runID string) (*mesh.CableMesh, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.LoadNodes(runID)
	if err != nil {
		return nil, err
	}
	edges, err := s.LoadEdges(runID)
	if err != nil {
		return nil, err
	}
	return BuildMesh(meta.Name, nodes, edges)
}

// BuildMesh assembles a mesh from stored records.
func BuildMesh(name string, nodes []NodeRecord, edges []EdgeRecord) (*mesh.CableMesh, error) {
	m := mesh.NewCableMesh(name)
	u := &mesh.Update{}
	for _, n := range nodes {
		if err := m.AddVertex(n.Key, n.XYZ); err != nil {
			return nil, err
		}
		if err := m.SetLoad(n.Key, n.Load); err != nil {
			return nil, err
		}
		if err := m.SetAnchor(n.Key, n.Fixed); err != nil {
			return nil, err
		}
		u.Vertices = append(u.Vertices, mesh.VertexOutput{Key: n.Key, XYZ: n.XYZ, Residual: n.Residual})
	}
	for _, e := range edges {
		if err := m.AddEdge(e.U, e.V, e.Q); err != nil {
			return nil, err
		}
		if err := m.SetActive(e.U, e.V, e.Active); err != nil {
			return nil, err
		}
		u.Edges = append(u.Edges, mesh.EdgeOutput{U: e.U, V: e.V, Force: e.Force, Length: e.Length})
	}
	if err := m.Apply(u); err != nil {
		return nil, err
	}
	return m, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr
}
