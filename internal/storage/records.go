package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/mesh"
)

var (
	nodeHeader = []string{"key", "x", "y", "z", "px", "py", "pz", "fixed", "rx", "ry", "rz"}
	edgeHeader = []string{"u", "v", "q", "active", "force", "length"}
)

type NodeRecord struct {
	Key      string `json:"key"`
	XYZ      r3.Vec `json:"xyz"`
	Load     r3.Vec `json:"load"`
	Fixed    bool   `json:"fixed"`
	Residual r3.Vec `json:"residual"`
}

type EdgeRecord struct {
	U      string  `json:"u"`
	V      string  `json:"v"`
	Q      float64 `json:"q"`
	Active bool    `json:"active"`
	Force  float64 `json:"force"`
	Length float64 `json:"length"`
}

func NodeRecords(m *mesh.CableMesh) []NodeRecord {
	vs := m.Vertices()
	out := make([]NodeRecord, len(vs))
	for i, v := range vs {
		out[i] = NodeRecord{Key: v.Key, XYZ: v.XYZ, Load: v.Load, Fixed: v.Anchor, Residual: v.Residual}
	}
	return out
}

func EdgeRecords(m *mesh.CableMesh) []EdgeRecord {
	es := m.Edges()
	out := make([]EdgeRecord, len(es))
	for i, e := range es {
		out[i] = EdgeRecord{U: e.U, V: e.V, Q: e.Q, Active: e.Active, Force: e.Force, Length: e.Length}
	}
	return out
}

func WriteNodesCSV(w io.Writer, m *mesh.CableMesh) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(nodeHeader); err != nil {
		return err
	}
	for _, n := range NodeRecords(m) {
		row := []string{
			n.Key,
			formatFloat(n.XYZ.X), formatFloat(n.XYZ.Y), formatFloat(n.XYZ.Z),
			formatFloat(n.Load.X), formatFloat(n.Load.Y), formatFloat(n.Load.Z),
			strconv.FormatBool(n.Fixed),
			formatFloat(n.Residual.X), formatFloat(n.Residual.Y), formatFloat(n.Residual.Z),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteEdgesCSV(w io.Writer, m *mesh.CableMesh) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(edgeHeader); err != nil {
		return err
	}
	for _, e := range EdgeRecords(m) {
		row := []string{
			e.U, e.V,
			formatFloat(e.Q),
			strconv.FormatBool(e.Active),
			formatFloat(e.Force), formatFloat(e.Length),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadNodesCSV(r io.Reader) ([]NodeRecord, error) {
	rows, err := readRows(r, nodeHeader)
	if err != nil {
		return nil, err
	}
	out := make([]NodeRecord, 0, len(rows))
	for i, row := range rows {
		p := &rowParser{row: row}
		n := NodeRecord{
			Key:      row[0],
			XYZ:      r3.Vec{X: p.float(1), Y: p.float(2), Z: p.float(3)},
			Load:     r3.Vec{X: p.float(4), Y: p.float(5), Z: p.float(6)},
			Fixed:    p.bool(7),
			Residual: r3.Vec{X: p.float(8), Y: p.float(9), Z: p.float(10)},
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "nodes row %d", i+1)
		}
		out = append(out, n)
	}
	return out, nil
}

func ReadEdgesCSV(r io.Reader) ([]EdgeRecord, error) {
	rows, err := readRows(r, edgeHeader)
	if err != nil {
		return nil, err
	}
	out := make([]EdgeRecord, 0, len(rows))
	for i, row := range rows {
		p := &rowParser{row: row}
		e := EdgeRecord{
			U:      row[0],
			V:      row[1],
			Q:      p.float(2),
			Active: p.bool(3),
			Force:  p.float(4),
			Length: p.float(5),
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "edges row %d", i+1)
		}
		out = append(out, e)
	}
	return out, nil
}

func readRows(r io.Reader, header []string) ([][]string, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.New("empty csv")
	}
	if fmt.Sprint(records[0]) != fmt.Sprint(header) {
		return nil, errors.Errorf("unexpected csv header %v", records[0])
	}
	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, errors.Errorf("row %d has %d fields, want %d", i+1, len(row), len(header))
		}
	}
	return rows, nil
}

type rowParser struct {
	row []string
	err error
}

func (p *rowParser) float(i int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.row[i], 64)
	if err != nil {
		p.err = err
	}
	return v
}

func (p *rowParser) bool(i int) bool {
	if p.err != nil {
		return false
	}
	v, err := strconv.ParseBool(p.row[i])
	if err != nil {
		p.err = err
	}
	return v
}
