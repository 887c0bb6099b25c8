// Package idgen provides the ID generators used to name batches, programs and
// recording sessions.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

// NewSequential creates an ID generator that generates IDs in sequence,
// starting from 1. The IDs are deterministic.
func NewSequential() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewParallel creates an ID generator that is safe to share across
// goroutines. The IDs generated are not deterministic.
func NewParallel() IDGenerator {
	return parallelIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

type parallelIDGenerator struct {
}

func (g parallelIDGenerator) Generate() string {
	return xid.New().String()
}
