// Package benchmark holds cross-package benchmarks for zumi.
//
// Run with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare runs with benchstat old.txt new.txt.
package benchmark
