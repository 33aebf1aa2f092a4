package strdict

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/jsonarc/jsonarc/errs"
)

// Sync is a single synchronous string dictionary: a slot vector plus a
// free list provides id allocation, a key→sid map resolves lookups, and a
// Bloom filter fast-skips exact-lookup probes for keys that are
// definitely absent from a batch.
//
// All exported methods take the dictionary-level mutex, matching the
// synchronous variant's "spinlock" in the concurrency contract.
type Sync struct {
	mu sync.Mutex

	slots    []string
	inUse    []bool
	freeList []uint64
	keyToSid map[string]uint64
	filter   *bloom.BloomFilter
}

// NewSync creates an empty Sync dictionary sized for roughly
// expectedKeys distinct strings at the given false-positive rate.
func NewSync(expectedKeys uint, falsePositiveRate float64) *Sync {
	if expectedKeys == 0 {
		expectedKeys = 1024
	}
	if falsePositiveRate <= 0 {
		falsePositiveRate = 0.01
	}

	return &Sync{
		keyToSid: make(map[string]uint64, expectedKeys),
		filter:   bloom.NewWithEstimates(expectedKeys, falsePositiveRate),
	}
}

// allocate assigns key a fresh slot, reusing a freed one if available, and
// returns its sid (slot index + 1, since sid 0 is reserved).
func (s *Sync) allocate(key string) uint64 {
	var idx uint64
	if n := len(s.freeList); n > 0 {
		idx = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.slots[idx] = key
		s.inUse[idx] = true
	} else {
		idx = uint64(len(s.slots))
		s.slots = append(s.slots, key)
		s.inUse = append(s.inUse, true)
	}

	return idx + 1
}

func (s *Sync) Insert(keys []string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]uint64, len(keys))
	for i, key := range keys {
		if !s.filter.TestString(key) {
			sid := s.allocate(key)
			s.keyToSid[key] = sid
			s.filter.AddString(key)
			out[i] = sid

			continue
		}

		if sid, ok := s.keyToSid[key]; ok {
			out[i] = sid
			continue
		}

		// Bloom false positive: the key isn't actually present.
		sid := s.allocate(key)
		s.keyToSid[key] = sid
		s.filter.AddString(key)
		out[i] = sid
	}

	return out, nil
}

func (s *Sync) LocateSafe(keys []string) ([]uint64, []bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sids := make([]uint64, len(keys))
	found := make([]bool, len(keys))
	notFound := 0

	for i, key := range keys {
		if sid, ok := s.keyToSid[key]; ok {
			sids[i] = sid
			found[i] = true
		} else {
			sids[i] = NullSid
			notFound++
		}
	}

	return sids, found, notFound, nil
}

func (s *Sync) LocateFast(keys []string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]uint64, len(keys))
	for i, key := range keys {
		out[i] = s.keyToSid[key]
	}

	return out, nil
}

func (s *Sync) Extract(sids []uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(sids))
	for i, sid := range sids {
		if sid == NullSid {
			out[i] = NullString
			continue
		}

		idx := sid - 1
		if idx >= uint64(len(s.slots)) || !s.inUse[idx] {
			return nil, errs.ErrNotFound
		}
		out[i] = s.slots[idx]
	}

	return out, nil
}

// Remove frees the slots backing sids. The Bloom filter has no removal
// operation, so a freed key's membership bit lingers; a future re-insert
// of that key falls back to an exact (always-miss) map lookup rather than
// the fast path, which only costs a redundant lookup, not correctness.
func (s *Sync) Remove(sids []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sid := range sids {
		if sid == NullSid {
			continue
		}

		idx := sid - 1
		if idx >= uint64(len(s.slots)) || !s.inUse[idx] {
			return errs.ErrNotFound
		}

		delete(s.keyToSid, s.slots[idx])
		s.inUse[idx] = false
		s.slots[idx] = ""
		s.freeList = append(s.freeList, idx)
	}

	return nil
}

func (s *Sync) NumDistinct() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.keyToSid)
}

func (s *Sync) Contents() ([]string, []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	strs := make([]string, 0, len(s.keyToSid))
	sids := make([]uint64, 0, len(s.keyToSid))
	for idx, inUse := range s.inUse {
		if inUse {
			strs = append(strs, s.slots[idx])
			sids = append(sids, uint64(idx)+1)
		}
	}

	return strs, sids
}
