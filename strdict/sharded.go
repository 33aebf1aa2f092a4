package strdict

import (
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jsonarc/jsonarc/errs"
)

// shardBits is the width of the shard tag packed into the high bits of a
// sharded sid, leaving 54 bits for the local id within a shard.
const (
	shardBits  = 10
	shardShift = 64 - shardBits
	localMask  = 1<<shardShift - 1
	maxShards  = 1 << shardBits
)

// Sharded fans bulk operations out across N Sync shards, one goroutine per
// shard per call, joined by errgroup.Group.Wait(). A dictionary-level
// mutex serializes externally-visible top-level calls; workers touch only
// their own shard and disjoint positions of the result slices.
type Sharded struct {
	mu     sync.Mutex
	shards []*Sync
	logger *slog.Logger
}

// NewSharded creates a Sharded dictionary with n shards, each sized for
// roughly expectedKeysPerShard distinct strings.
func NewSharded(n int, expectedKeysPerShard uint, falsePositiveRate float64) (*Sharded, error) {
	if n <= 0 || n > maxShards {
		return nil, errs.ErrShardOutOfRange
	}

	shards := make([]*Sync, n)
	for i := range shards {
		shards[i] = NewSync(expectedKeysPerShard, falsePositiveRate)
	}

	return &Sharded{shards: shards, logger: slog.Default()}, nil
}

// SetLogger overrides the logger used to report failed shard workers.
// Callers that never call it get slog.Default().
func (d *Sharded) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

func (d *Sharded) shardFor(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(d.shards)))
}

func compoundSid(shard int, local uint64) uint64 {
	return uint64(shard)<<shardShift | (local & localMask)
}

// decompose splits a sharded sid into its shard index and local id. It
// returns errs.ErrShardOutOfRange if the shard tag exceeds this
// dictionary's shard count.
func (d *Sharded) decompose(sid uint64) (shard int, local uint64, err error) {
	if sid == NullSid {
		return 0, 0, nil
	}

	shard = int(sid >> shardShift)
	if shard >= len(d.shards) {
		return 0, 0, errs.ErrShardOutOfRange
	}

	return shard, sid & localMask, nil
}

// partition groups each key's original index by destination shard.
func (d *Sharded) partition(keys []string) [][]int {
	byShard := make([][]int, len(d.shards))
	for i, key := range keys {
		s := d.shardFor(key)
		byShard[s] = append(byShard[s], i)
	}

	return byShard
}

func (d *Sharded) Insert(keys []string) ([]uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byShard := d.partition(keys)
	out := make([]uint64, len(keys))

	var g errgroup.Group
	for shard, positions := range byShard {
		if len(positions) == 0 {
			continue
		}
		shard, positions := shard, positions
		g.Go(func() error {
			shardKeys := make([]string, len(positions))
			for i, pos := range positions {
				shardKeys[i] = keys[pos]
			}

			sids, err := d.shards[shard].Insert(shardKeys)
			if err != nil {
				d.logger.Warn("shard insert failed", "shard", shard, "keys", len(shardKeys), "err", err)
				return err
			}
			for i, pos := range positions {
				out[pos] = compoundSid(shard, sids[i])
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (d *Sharded) LocateSafe(keys []string) ([]uint64, []bool, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byShard := d.partition(keys)
	sids := make([]uint64, len(keys))
	found := make([]bool, len(keys))
	var notFound atomicCounter

	var g errgroup.Group
	for shard, positions := range byShard {
		if len(positions) == 0 {
			continue
		}
		shard, positions := shard, positions
		g.Go(func() error {
			shardKeys := make([]string, len(positions))
			for i, pos := range positions {
				shardKeys[i] = keys[pos]
			}

			shardSids, shardFound, shardNotFound, err := d.shards[shard].LocateSafe(shardKeys)
			if err != nil {
				return err
			}
			for i, pos := range positions {
				found[pos] = shardFound[i]
				if shardFound[i] {
					sids[pos] = compoundSid(shard, shardSids[i])
				} else {
					sids[pos] = NullSid
				}
			}
			notFound.add(shardNotFound)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	return sids, found, notFound.value(), nil
}

func (d *Sharded) LocateFast(keys []string) ([]uint64, error) {
	sids, _, _, err := d.LocateSafe(keys)

	return sids, err
}

func (d *Sharded) Extract(sids []uint64) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(sids))

	type job struct {
		shard     int
		positions []int
		locals    []uint64
	}
	jobs := make(map[int]*job)

	for i, sid := range sids {
		if sid == NullSid {
			out[i] = NullString
			continue
		}

		shard, local, err := d.decompose(sid)
		if err != nil {
			return nil, err
		}

		j, ok := jobs[shard]
		if !ok {
			j = &job{shard: shard}
			jobs[shard] = j
		}
		j.positions = append(j.positions, i)
		j.locals = append(j.locals, local)
	}

	var g errgroup.Group
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			strs, err := d.shards[j.shard].Extract(j.locals)
			if err != nil {
				return err
			}
			for i, pos := range j.positions {
				out[pos] = strs[i]
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (d *Sharded) Remove(sids []uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	byShard := make(map[int][]uint64)
	for _, sid := range sids {
		if sid == NullSid {
			continue
		}
		shard, local, err := d.decompose(sid)
		if err != nil {
			return err
		}
		byShard[shard] = append(byShard[shard], local)
	}

	var g errgroup.Group
	for shard, locals := range byShard {
		shard, locals := shard, locals
		g.Go(func() error {
			return d.shards[shard].Remove(locals)
		})
	}

	return g.Wait()
}

func (d *Sharded) NumDistinct() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0
	for _, s := range d.shards {
		total += s.NumDistinct()
	}

	return total
}

func (d *Sharded) Contents() ([]string, []uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var strs []string
	var sids []uint64

	for shard, s := range d.shards {
		shardStrs, shardSids := s.Contents()
		strs = append(strs, shardStrs...)
		for _, local := range shardSids {
			sids = append(sids, compoundSid(shard, local))
		}
	}

	return strs, sids
}

// atomicCounter is a tiny mutex-guarded counter for summing per-shard
// not-found counts contributed by concurrent workers.
type atomicCounter struct {
	mu sync.Mutex
	n  int
}

func (c *atomicCounter) add(n int) {
	c.mu.Lock()
	c.n += n
	c.mu.Unlock()
}

func (c *atomicCounter) value() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.n
}
