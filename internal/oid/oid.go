// Package oid mints unique 64-bit object identifiers for every object
// serialized into an archive during a single build.
//
// A minted id packs, from the most to least significant bits: a
// wall-clock timestamp, a process identity tag, a per-process counter, a
// goroutine identity tag, a per-goroutine counter, and a random tail. The
// layout favors uniqueness within one build over any cross-process
// ordering guarantee.
package oid

import (
	"crypto/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/internal/hash"
)

const (
	wallClockBits = 20
	processBits   = 10
	processCtrBits = 12
	goroutineBits = 10
	goroutineCtrBits = 8
	randomBits    = 4

	wallClockShift = 64 - wallClockBits
	processShift    = wallClockShift - processBits
	processCtrShift = processShift - processCtrBits
	goroutineShift  = processCtrShift - goroutineBits
	goroutineCtrShift = goroutineShift - goroutineCtrBits

	processCtrMax   = 1<<processCtrBits - 1
	goroutineCtrMax = 1<<goroutineCtrBits - 1
)

// processTag is derived once per process from its pid and start time, and
// truncated to processBits.
var processTag = func() uint64 {
	seed := hash.ID(time.Now().Format(time.RFC3339Nano)) ^ uint64(os.Getpid())

	return seed & (1<<processBits - 1)
}()

var processCounter atomic.Uint64

// Generator mints oids for a single archive build. Its identity tag and
// counter fill the per-thread fields of the id format, so each goroutine
// should use its own Generator, obtained via NewGenerator. New holds a
// mutex, so concurrent calls on one Generator are safe.
type Generator struct {
	mu        sync.Mutex
	goroutineTag uint64
	counter   uint64
}

// NewGenerator creates a Generator with a fresh per-goroutine identity tag.
func NewGenerator() *Generator {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	tag := xxhash.Sum64(buf[:]) & (1<<goroutineBits - 1)

	return &Generator{goroutineTag: tag}
}

// New mints the next oid from g. It returns errs.ErrThreadOutOfOIDs once
// this generator's counter space (goroutineCtrBits) is exhausted, where a
// fresh Generator starts over, and once the process-wide counter space
// (processCtrBits) is exhausted, which no Generator resets.
func (g *Generator) New() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.counter > goroutineCtrMax {
		return 0, errs.ErrThreadOutOfOIDs
	}
	ctr := g.counter
	g.counter++

	procCtr := processCounter.Add(1)
	if procCtr > processCtrMax {
		return 0, errs.ErrThreadOutOfOIDs
	}

	wallClock := uint64(time.Now().UnixNano()) & (1<<wallClockBits - 1)

	var randTail [1]byte
	_, _ = rand.Read(randTail[:])
	tail := uint64(randTail[0]) & (1<<randomBits - 1)

	id := wallClock<<wallClockShift |
		processTag<<processShift |
		procCtr<<processCtrShift |
		g.goroutineTag<<goroutineShift |
		ctr<<goroutineCtrShift |
		tail

	return id, nil
}
