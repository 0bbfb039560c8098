package search

import (
	"time"

	"golang.org/x/exp/rand"
)

type SeedGeneratorFnType func() int64

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// Set custom seed generator function for random number generators of the engines,
// by default uses current time in nanoseconds
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}

// New generator seeded from 'seed', or from SeedGeneratorFn if 'seed' is 0
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = SeedGeneratorFn()
	}
	return rand.New(rand.NewSource(uint64(seed)))
}

// Independent generator for a worker goroutine, seeded from 'parent'
func SplitRand(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewSource(parent.Uint64()))
}
