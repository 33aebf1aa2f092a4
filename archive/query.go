package archive

import (
	"fmt"
	"sync"

	"github.com/jsonarc/jsonarc/errs"
	"github.com/jsonarc/jsonarc/strdict"
	"github.com/jsonarc/jsonarc/wire"
)

// Predicate drives Query.FindIDs. Validate runs once before scanning
// begins, letting a malformed capture (e.g. an empty pattern) abort
// without touching the string table; Match runs once per candidate
// string.
type Predicate interface {
	Validate() error
	Match(s string) bool
}

// Query resolves string ids and searches string content over an open
// Reader, serializing access to the reader's shared bit-file cursor
// across concurrent callers.
type Query struct {
	r     *Reader
	mu    sync.Mutex
	cache map[uint64]string
}

// NewQuery wraps r for string lookups. withCache enables an unbounded
// in-process cache of resolved (sid, string) pairs; callers with a
// working set too large to hold in memory should pass false.
func NewQuery(r *Reader, withCache bool) *Query {
	q := &Query{r: r}
	if withCache {
		q.cache = make(map[uint64]string)
	}

	return q
}

// FetchString resolves sid to its string, trying the in-process cache,
// then the sid index (if the archive carries one), then a linear scan of
// the string table as a last resort.
func (q *Query) FetchString(sid uint64) (string, error) {
	if sid == strdict.NullSid {
		return strdict.NullString, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cache != nil {
		if s, ok := q.cache[sid]; ok {
			return s, nil
		}
	}

	if q.r.sidIdx != nil {
		if offset, length, ok := q.r.sidIdx.Get(sid); ok {
			if offset+length > uint64(q.r.f.Len()) {
				return "", errs.ErrIndexCorrupted
			}
			s, err := q.decodeAt(int64(offset))
			if err != nil {
				return "", err
			}
			q.remember(sid, s)

			return s, nil
		}
	}

	var (
		found string
		ok    bool
	)
	if err := q.forEachStringEntry(func(entrySid uint64, s string) (bool, error) {
		if entrySid == sid {
			found, ok = s, true
			return false, nil
		}

		return true, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrScanFailed, err)
	}
	if !ok {
		return "", errs.ErrNotFound
	}

	q.remember(sid, found)

	return found, nil
}

// decodeAt decodes the string whose payload starts at offset, recovering
// its original length from the 4 bytes the string-table entry writer
// placed immediately before the payload.
func (q *Query) decodeAt(offset int64) (string, error) {
	if err := q.r.f.Seek(offset - 4); err != nil {
		return "", err
	}
	origLen, err := q.r.f.ReadU32()
	if err != nil {
		return "", err
	}

	return q.r.packer.DecodeString(q.r.f, int(origLen))
}

func (q *Query) remember(sid uint64, s string) {
	if q.cache != nil {
		q.cache[sid] = s
	}
}

// FetchStringsByOffset decodes the strings at offsets directly, given
// their already-known original lengths, without consulting the cache or
// the sid index. Useful when a caller already holds offsets and lengths
// from a prior sid-index lookup.
func (q *Query) FetchStringsByOffset(offsets []int64, lengths []int) ([]string, error) {
	if len(offsets) != len(lengths) {
		return nil, errs.ErrNullArg
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(offsets))
	for i, off := range offsets {
		if err := q.r.f.Seek(off); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrScanFailed, err)
		}
		s, err := q.r.packer.DecodeString(q.r.f, lengths[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}

	return out, nil
}

// FindIDs scans the string table for strings matching p, returning their
// sids in table order. limit bounds the result count; 0 means unbounded.
func (q *Query) FindIDs(p Predicate, limit int) ([]uint64, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrPredicateFailed, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var matches []uint64
	err := q.forEachStringEntry(func(sid uint64, s string) (bool, error) {
		if p.Match(s) {
			matches = append(matches, sid)
			if limit > 0 && len(matches) >= limit {
				return false, nil
			}
		}

		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrScanFailed, err)
	}

	return matches, nil
}

// forEachStringEntry walks the string table's linked list of entries
// from the first one, decoding each and invoking fn. fn returns false to
// stop early.
func (q *Query) forEachStringEntry(fn func(sid uint64, s string) (bool, error)) error {
	if q.r.stHeader.EntryCount == 0 {
		return nil
	}

	f := q.r.f
	offset := int64(q.r.stHeader.FirstEntryOffset)

	for i := uint32(0); i < q.r.stHeader.EntryCount; i++ {
		if err := f.Seek(offset); err != nil {
			return err
		}
		m, err := f.ReadU8()
		if err != nil {
			return err
		}
		if err := wire.Expect(wire.MarkerStringEntry, wire.Marker(m), offset); err != nil {
			return err
		}

		nextOffset, err := f.ReadU64()
		if err != nil {
			return err
		}
		sid, err := f.ReadU64()
		if err != nil {
			return err
		}
		origLen, err := f.ReadU32()
		if err != nil {
			return err
		}

		s, err := q.r.packer.DecodeString(f, int(origLen))
		if err != nil {
			return err
		}

		cont, err := fn(sid, s)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		if nextOffset == 0 {
			break
		}
		offset = int64(nextOffset)
	}

	return nil
}
