// Package journalsvc keeps an ordered, persistent log of delivered wire frames so gestures can be replayed.
package journalsvc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"
	"github.com/neuroplastio/neio-draw/motion"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var framePrefix = []byte("journal/frames/")

type Journal struct {
	log *zap.Logger
	db  *badger.DB

	// mu serializes appends so a sequence number is taken only once its write succeeds.
	mu  sync.Mutex
	seq *atomic.Uint64
}

// Open prepares the journal and resumes numbering after the last stored frame.
func Open(db *badger.DB, log *zap.Logger) (*Journal, error) {
	j := &Journal{
		log: log,
		db:  db,
		seq: atomic.NewUint64(0),
	}
	last, err := j.lastSeq()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal head: %w", err)
	}
	j.seq.Store(last)
	return j, nil
}

func frameKey(seq uint64) []byte {
	key := make([]byte, len(framePrefix)+8)
	copy(key, framePrefix)
	binary.BigEndian.PutUint64(key[len(framePrefix):], seq)
	return key
}

func keySeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(framePrefix):])
}

func (j *Journal) lastSeq() (uint64, error) {
	var last uint64
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()
		for iter.Seek(framePrefix); iter.ValidForPrefix(framePrefix); iter.Next() {
			last = keySeq(iter.Item().Key())
		}
		return nil
	})
	return last, err
}

// Append stores a frame under the next sequence number.
func (j *Journal) Append(frame motion.Frame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	seq := j.seq.Load() + 1
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(seq), b)
	})
	if err != nil {
		return fmt.Errorf("failed to store frame %d: %w", seq, err)
	}
	j.seq.Store(seq)
	return nil
}

type Entry struct {
	Seq   uint64       `json:"seq"`
	Frame motion.Frame `json:"frame"`
}

var errStop = errors.New("stop")

// Each calls fn for every stored frame in sequence order until fn returns false.
func (j *Journal) Each(fn func(Entry) bool) error {
	err := j.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()
		for iter.Seek(framePrefix); iter.ValidForPrefix(framePrefix); iter.Next() {
			item := iter.Item()
			entry := Entry{Seq: keySeq(item.Key())}
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry.Frame)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal frame %d: %w", entry.Seq, err)
			}
			if !fn(entry) {
				return errStop
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	return nil
}

func (j *Journal) List() ([]Entry, error) {
	var entries []Entry
	err := j.Each(func(e Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries, err
}

// Replay publishes every stored frame in order.
func (j *Journal) Replay(ctx context.Context, publish func(ctx context.Context, frame motion.Frame)) (int, error) {
	count := 0
	err := j.Each(func(e Entry) bool {
		if ctx.Err() != nil {
			return false
		}
		publish(ctx, e.Frame)
		count++
		return true
	})
	if err != nil {
		return count, err
	}
	return count, ctx.Err()
}

// Clear deletes every stored frame. Numbering is not reset while the journal stays open.
func (j *Journal) Clear() error {
	if err := j.db.DropPrefix(framePrefix); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	j.log.Info("journal cleared", zap.Uint64("lastSeq", j.seq.Load()))
	return nil
}
