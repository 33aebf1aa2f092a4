// Package strdict assigns stable numeric identifiers (sids) to strings and
// resolves them back. Sync is a single, in-process dictionary; Sharded
// fans bulk operations out across N Sync shards for concurrent builds.
package strdict

// NullSid is the reserved sid that decodes to the literal string "null".
// No key ever maps to it.
const NullSid uint64 = 0

// NullString is the text a lookup of NullSid resolves to.
const NullString = "null"

// Dict is the shared contract between Sync and Sharded.
type Dict interface {
	// Insert returns a sid for each key, aligned to the input. Re-inserting
	// an existing key returns its existing sid.
	Insert(keys []string) ([]uint64, error)

	// LocateSafe probes every key and reports which were found. Missing
	// keys are assigned NullSid in the returned slice.
	LocateSafe(keys []string) (sids []uint64, found []bool, notFound int, err error)

	// LocateFast looks up keys without a presence check; behavior for a
	// missing key is unspecified beyond not panicking.
	LocateFast(keys []string) ([]uint64, error)

	// Extract resolves sids back to their strings. NullSid resolves to
	// NullString; any other sid with no live entry returns errs.ErrNotFound.
	Extract(sids []uint64) ([]string, error)

	// Remove frees the slots backing sids, making their local ids eligible
	// for reuse by later inserts (Sharded delegates to each shard's Sync).
	Remove(sids []uint64) error

	// NumDistinct returns the count of live entries.
	NumDistinct() int

	// Contents returns every live string alongside its sid, in no
	// particular order.
	Contents() ([]string, []uint64)
}

var _ Dict = (*Sync)(nil)
var _ Dict = (*Sharded)(nil)
