// Package idgen generates entity identifiers. It exists as a seam so
// callers depend on an interface rather than github.com/google/uuid
// directly, the way the teacher's registry.go calls uuid.New() inline but
// this repository's core needs a fake for deterministic tests (spec §6).
package idgen

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator interface {
	NewID() string
}

// UUIDGenerator generates RFC 4122 UUIDs, the same generator the teacher's
// schema registry uses.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.New().String() }

// Sequence is a deterministic Generator for tests: it returns prefix-1,
// prefix-2, ... in call order.
type Sequence struct {
	Prefix string
	next   int
}

func NewSequence(prefix string) *Sequence { return &Sequence{Prefix: prefix} }

func (s *Sequence) NewID() string {
	s.next++
	return s.Prefix + "-" + strconv.Itoa(s.next)
}
