// Package netfile reads and writes cable networks as YAML documents or as
// .fdn text files.
//
// The .fdn format is line oriented; "#" starts a comment:
//
//	name roof
//	node a 0 0 0 fixed
//	node b 1 0 0 load 0 0 -1
//	node c 2 0 0 fixed
//	edge a b q 1
//	edge b c q 1
//	edge a c q 0.5 inactive
//
// Keys are identifiers or numbers. Vertices and edges keep file order.
package netfile
