// Package sources provides ready-made log sources for the mergers: in-memory
// slices, delayed asynchronous wrappers, seeded random generators, function
// adapters and a sqlite-backed reader.
package sources
