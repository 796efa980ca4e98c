// Package cache memoizes equilibrium results in a badger key-value store.
// Solves are deterministic, so a result keyed by an exact hash of its
// inputs can be replayed instead of recomputed.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/san-kum/formfind/internal/fd"
)

const keyPrefix = "fdres/v1/"

type DB struct {
	db *badger.DB
}

// Open opens or creates the cache under dir. An empty dir keeps the cache
// in memory.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.MetricsEnabled = false
	if dir == "" {
		opts.InMemory = true
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open cache %s", dir)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Purge removes every cached result.
func (d *DB) Purge() error {
	return errors.Wrap(d.db.DropPrefix([]byte(keyPrefix)), "purge cache")
}

// Len counts cached results.
func (d *DB) Len() (int, error) {
	n := 0
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(keyPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (d *DB) get(key []byte) (*fd.Result, bool, error) {
	var res *fd.Result
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			res = new(fd.Result)
			return json.Unmarshal(val, res)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read cache")
	}
	return res, true, nil
}

func (d *DB) put(key []byte, res *fd.Result) error {
	val, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return errors.Wrap(d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	}), "write cache")
}

// Describer is implemented by solvers whose configuration affects results
// beyond the network itself.
type Describer interface {
	Describe() string
}

// Solver answers from the cache and falls back to the wrapped solver.
// Failed solves are never cached.
type Solver struct {
	db     *DB
	inner  fd.Equilibrium
	tag    string
	hits   atomic.Int64
	misses atomic.Int64
}

// Wrap returns a caching solver around inner. Results are keyed by the
// network and by inner's description, when it has one.
func (d *DB) Wrap(inner fd.Equilibrium) *Solver {
	tag := fmt.Sprintf("%T", inner)
	if desc, ok := inner.(Describer); ok {
		tag = desc.Describe()
	}
	return &Solver{db: d, inner: inner, tag: tag}
}

func (s *Solver) Solve(ctx context.Context, net *fd.Network, cfg fd.Config) (*fd.Result, error) {
	if err := fd.Validate(net); err != nil {
		return nil, err
	}
	key := Key(net, s.tag)

	res, ok, err := s.db.get(key)
	if err != nil {
		klog.Warningf("cache: %v", err)
	}
	if ok && len(res.Vertices) == len(net.Vertices) && len(res.Forces) == len(net.Edges) {
		s.hits.Add(1)
		klog.V(2).Infof("cache: hit %x", key[len(keyPrefix):])
		return res, nil
	}

	s.misses.Add(1)
	res, err = s.inner.Solve(ctx, net, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.db.put(key, res); err != nil {
		klog.Warningf("cache: %v", err)
	}
	return res, nil
}

func (s *Solver) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Key hashes every input that determines a result for a validated network.
// The fixed list is normalized first. Float values are hashed by their bit
// patterns, so -0 and 0 are distinct keys.
func Key(net *fd.Network, tag string) []byte {
	h := xxhash.New()
	var buf [8]byte
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	putInt(len(tag))
	h.WriteString(tag)

	putInt(len(net.Vertices))
	for i, v := range net.Vertices {
		putFloat(v.X)
		putFloat(v.Y)
		putFloat(v.Z)
		p := net.Loads[i]
		putFloat(p.X)
		putFloat(p.Y)
		putFloat(p.Z)
	}
	putInt(len(net.Edges))
	for e, uv := range net.Edges {
		putInt(uv[0])
		putInt(uv[1])
		putFloat(net.Q[e])
	}

	fixed := append([]int(nil), net.Fixed...)
	sort.Ints(fixed)
	fixed = slices.Compact(fixed)
	putInt(len(fixed))
	for _, i := range fixed {
		putInt(i)
	}

	return []byte(fmt.Sprintf("%s%016x", keyPrefix, h.Sum64()))
}
