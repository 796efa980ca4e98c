// Package mesh binds keyed mesh data structures to the index-based
// equilibrium solver in package fd.
//
// A [Source] exposes vertex coordinates, loads, anchor flags and the
// active edges with their force densities. [Read] turns it into an
// [fd.Network] plus a [Binding] that remembers which key sits at which
// index; [Binding.Update] maps a result back to keys. [Equilibrate] does
// both and hands the update to a [Sink] only after the solve succeeded, so
// a failed solve leaves the mesh untouched.
//
// [CableMesh] is the in-memory implementation used by the CLI, the file
// formats and the generators.
package mesh
