package fd

import "sort"

// Partition splits node indices into fixed and free, both ascending.
type Partition struct {
	Free  []int
	Fixed []int
}

// NewPartition derives the partition from a fixed list that may be
// unsorted or contain duplicates. Indices must already be validated.
func NewPartition(n int, fixed []int) (Partition, error) {
	isFixed := make([]bool, n)
	for _, i := range fixed {
		isFixed[i] = true
	}

	p := Partition{
		Free:  make([]int, 0, n),
		Fixed: make([]int, 0, len(fixed)),
	}
	for i := 0; i < n; i++ {
		if isFixed[i] {
			p.Fixed = append(p.Fixed, i)
		} else {
			p.Free = append(p.Free, i)
		}
	}
	if len(p.Free) == 0 {
		return Partition{}, invalid("fixed", -1, "all %d nodes are fixed, nothing to solve", n)
	}
	return p, nil
}

// IsFixed reports whether node i is a support.
func (p Partition) IsFixed(i int) bool {
	k := sort.SearchInts(p.Fixed, i)
	return k < len(p.Fixed) && p.Fixed[k] == i
}
