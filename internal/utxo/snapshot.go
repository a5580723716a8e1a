package utxo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/feescope/feescope/internal/logging"
)

const (
	snapshotEntryPrefix byte = 'u'
	snapshotBatchSize        = 100_000
)

var snapshotMetaKey = []byte("m/state")

// SnapshotStore persists the UTXO set at a block-height checkpoint so a
// later UTXO-dependent run can resume instead of replaying from genesis.
type SnapshotStore struct {
	db *pebble.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	opts := (&pebble.Options{}).EnsureDefaults()
	opts.BytesPerSync = 1 << 20
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

func (st *SnapshotStore) Close() error {
	return st.db.Close()
}

// Save replaces any previous snapshot with the given set as of height.
func (st *SnapshotStore) Save(set *Set, height uint32) error {
	batch := st.db.NewBatch()
	if err := batch.DeleteRange(
		[]byte{snapshotEntryPrefix},
		[]byte{snapshotEntryPrefix + 1},
		nil,
	); err != nil {
		return err
	}

	var key [9]byte
	var value [8]byte
	key[0] = snapshotEntryPrefix
	count := 0
	for digest, sats := range set.active {
		binary.BigEndian.PutUint64(key[1:], digest)
		binary.BigEndian.PutUint64(value[:], uint64(sats))
		if err := batch.Set(key[:], value[:], nil); err != nil {
			return err
		}
		count++
		if count%snapshotBatchSize == 0 {
			if err := batch.Commit(pebble.NoSync); err != nil {
				return err
			}
			batch = st.db.NewBatch()
		}
	}

	var meta [20]byte
	binary.BigEndian.PutUint32(meta[0:4], height)
	binary.BigEndian.PutUint64(meta[4:12], set.collisionCount)
	binary.BigEndian.PutUint64(meta[12:20], set.duplicateCount)
	if err := batch.Set(snapshotMetaKey, meta[:], nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return err
	}

	logging.L.Info().
		Uint32("height", height).
		Int("entries", set.Size()).
		Msg("utxo snapshot saved")
	return nil
}

// Load restores the last snapshot. The boolean is false when the store is
// empty.
func (st *SnapshotStore) Load() (*Set, uint32, bool, error) {
	meta, closer, err := st.db.Get(snapshotMetaKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("read snapshot meta: %w", err)
	}
	if len(meta) != 20 {
		closer.Close()
		return nil, 0, false, fmt.Errorf("snapshot meta has %d bytes, want 20", len(meta))
	}
	height := binary.BigEndian.Uint32(meta[0:4])
	set := NewSet()
	set.collisionCount = binary.BigEndian.Uint64(meta[4:12])
	set.duplicateCount = binary.BigEndian.Uint64(meta[12:20])
	closer.Close()

	iter, err := st.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{snapshotEntryPrefix},
		UpperBound: []byte{snapshotEntryPrefix + 1},
	})
	if err != nil {
		return nil, 0, false, err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != 9 {
			return nil, 0, false, fmt.Errorf("snapshot entry key has %d bytes, want 9", len(key))
		}
		digest := binary.BigEndian.Uint64(key[1:])
		sats := int64(binary.BigEndian.Uint64(iter.Value()))
		set.active[digest] = sats
	}
	if err := iter.Error(); err != nil {
		return nil, 0, false, err
	}

	logging.L.Info().
		Uint32("height", height).
		Int("entries", set.Size()).
		Msg("utxo snapshot restored")
	return set, height, true, nil
}
