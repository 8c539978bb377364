// Package id generates identifiers for packets and events.
package id

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Generator can generate IDs.
type Generator interface {
	Generate() string
}

var (
	generatorMutex        sync.Mutex
	generatorInstantiated bool
	generator             Generator
)

// UseSequential makes the package generate sequential IDs. Sequential IDs
// keep runs reproducible and are the default.
func UseSequential() {
	use(&sequentialGenerator{})
}

// UseParallel makes the package generate globally unique IDs with xid. The
// IDs are no longer deterministic.
func UseParallel() {
	use(parallelGenerator{})
}

func use(g Generator) {
	generatorMutex.Lock()
	defer generatorMutex.Unlock()

	if generatorInstantiated {
		logrus.Panic("cannot change id generator type after using it")
	}

	generator = g
	generatorInstantiated = true
}

// Get returns the ID generator in use.
func Get() Generator {
	generatorMutex.Lock()
	defer generatorMutex.Unlock()

	if !generatorInstantiated {
		generator = &sequentialGenerator{}
		generatorInstantiated = true
	}

	return generator
}

// Generate returns a new ID from the generator in use.
func Generate() string {
	return Get().Generate()
}

// NewSequential returns an independent sequential generator.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	nextID uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return strconv.FormatUint(idNumber, 10)
}

type parallelGenerator struct{}

func (g parallelGenerator) Generate() string {
	return xid.New().String()
}
