package mesh

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treebidimap"
	"github.com/emirpasic/gods/utils"
	"github.com/san-kum/formfind/internal/fd"
)

// KeyIndex is a bidirectional map between vertex keys and contiguous node
// indices, assigned in the order the keys were given.
type KeyIndex struct {
	m *treebidimap.Map
}

func NewKeyIndex(keys []string) (*KeyIndex, error) {
	ki := &KeyIndex{m: treebidimap.NewWith(utils.StringComparator, utils.IntComparator)}
	for i, k := range keys {
		if _, dup := ki.m.Get(k); dup {
			return nil, fmt.Errorf("mesh: duplicate vertex key %q: %w", k, fd.ErrInvalidInput)
		}
		ki.m.Put(k, i)
	}
	return ki, nil
}

// Index returns the node index of key.
func (ki *KeyIndex) Index(key string) (int, bool) {
	v, ok := ki.m.Get(key)
	if !ok {
		return -1, false
	}
	return v.(int), true
}

// Key returns the key stored at node index i.
func (ki *KeyIndex) Key(i int) (string, bool) {
	k, ok := ki.m.GetKey(i)
	if !ok {
		return "", false
	}
	return k.(string), true
}

func (ki *KeyIndex) Len() int { return ki.m.Size() }

// Keys returns all keys in index order.
func (ki *KeyIndex) Keys() []string {
	keys := make([]string, ki.Len())
	it := ki.m.Iterator()
	for it.Next() {
		keys[it.Value().(int)] = it.Key().(string)
	}
	return keys
}
