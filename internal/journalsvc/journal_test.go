package journalsvc

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openJournal(t *testing.T, dir string) *Journal {
	t.Helper()
	db, err := OpenDB(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	j, err := Open(db, zap.NewNop())
	require.NoError(t, err)
	return j
}

func TestJournalAppendReplay(t *testing.T) {
	j := openJournal(t, t.TempDir())
	frames := []motion.Frame{
		{1, 1, 0, 0, 0, 7, 1, 0, 3, 100, 200},
		{1, 1, 2, 0, 0, 7, 1, 16, 3, 105, 202},
		{1, 1, 1, 0, 0, 7, 1, 32, 3, 105, 202},
	}
	for _, f := range frames {
		require.NoError(t, j.Append(f))
	}

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, uint64(i+1), e.Seq)
		assert.Equal(t, frames[i], e.Frame)
	}

	var replayed []motion.Frame
	n, err := j.Replay(context.Background(), func(_ context.Context, f motion.Frame) {
		replayed = append(replayed, f)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, frames, replayed)
}

func TestJournalEachStops(t *testing.T) {
	j := openJournal(t, t.TempDir())
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(motion.Frame{float64(i)}))
	}
	count := 0
	require.NoError(t, j.Each(func(Entry) bool {
		count++
		return count < 2
	}))
	assert.Equal(t, 2, count)
}

func TestJournalReplayCancelled(t *testing.T) {
	j := openJournal(t, t.TempDir())
	require.NoError(t, j.Append(motion.Frame{1}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := j.Replay(ctx, func(context.Context, motion.Frame) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}

func TestJournalResumesSequence(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(dir, zap.NewNop())
	require.NoError(t, err)
	j, err := Open(db, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Append(motion.Frame{1}))
	require.NoError(t, j.Append(motion.Frame{2}))
	require.NoError(t, db.Close())

	j = openJournal(t, dir)
	require.NoError(t, j.Append(motion.Frame{3}))
	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(3), entries[2].Seq)
}

func TestJournalClear(t *testing.T) {
	j := openJournal(t, t.TempDir())
	for i := 0; i < 3; i++ {
		require.NoError(t, j.Append(motion.Frame{float64(i)}))
	}
	require.NoError(t, j.Clear())
	entries, err := j.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, j.Append(motion.Frame{9}))
	entries, err = j.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(4), entries[0].Seq)
}

func TestJournalFailedAppendKeepsSequence(t *testing.T) {
	opts := badger.DefaultOptions(t.TempDir()).WithValueLogFileSize(1 << 20).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	j, err := Open(db, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, j.Append(motion.Frame{1}))
	// larger than a value log file, so badger refuses the write
	huge := make(motion.Frame, 1<<18)
	for i := range huge {
		huge[i] = 0.123456789
	}
	require.Error(t, j.Append(huge))
	require.NoError(t, j.Append(motion.Frame{2}))

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, uint64(2), entries[1].Seq, "the failed write did not consume a sequence number")
}
