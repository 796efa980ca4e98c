// Package sparse provides the compressed sparse row (CSR) storage used to
// assemble force density systems.
//
// Matrices are built from coordinate triplets ([COO]) and frozen into [CSR]:
//
//	coo := sparse.NewCOO(m, n)
//	coo.Add(e, i, +1)
//	coo.Add(e, j, -1)
//	c := coo.ToCSR()
//
// Duplicate triplets are summed in insertion order, so two builds from the
// same triplet sequence produce bit-identical matrices.
//
// # Products
//
// The assembly helpers [WeightedGram] and [WeightedCross] form CᵀWC and
// CᵀWD for a diagonal W without materialising W, visiting each row once.
package sparse
