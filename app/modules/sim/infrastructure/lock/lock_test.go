package simlock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ simservice.Lock = (*KVLock)(nil)
	_ simservice.Lock = (*MemoryLock)(nil)
)

func TestKVLock(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("unset flags read false", func(t *testing.T) {
		lock := NewKVLock(NewFakeKeyValue(), "l1", logger)

		stop, err := lock.Get(ctx, simdomain.FlagStopGameSim)
		require.NoError(t, err)
		assert.False(t, stop)
	})

	t.Run("gameSim blocks a second run", func(t *testing.T) {
		kv := NewFakeKeyValue()
		lock := NewKVLock(kv, "l1", logger)

		ok, err := lock.TryStartGames(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("true"), kv.data["l1.gameSim"])

		ok, err = lock.TryStartGames(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		other := NewKVLock(kv, "l2", logger)
		ok, err = other.TryStartGames(ctx)
		require.NoError(t, err)
		assert.True(t, ok, "leagues are isolated")
	})

	t.Run("released flag is claimed with a revision check", func(t *testing.T) {
		kv := NewFakeKeyValue()
		lock := NewKVLock(kv, "l1", logger)
		require.NoError(t, lock.Set(ctx, simdomain.FlagGameSim, false))

		ok, err := lock.TryStartGames(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"Put", "Get", "Update"}, kv.trace)
	})

	t.Run("a rival write between read and claim loses the race", func(t *testing.T) {
		tests := []struct {
			name     string
			released bool
		}{
			{"key never written", false},
			{"key released", true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				kv := NewFakeKeyValue()
				lock := NewKVLock(kv, "l1", logger)
				if tt.released {
					require.NoError(t, lock.Set(ctx, simdomain.FlagGameSim, false))
				}
				rival := NewKVLock(kv, "l1", logger)
				kv.BeforeWrite = func() {
					kv.BeforeWrite = nil
					require.NoError(t, rival.Set(ctx, simdomain.FlagGameSim, true))
				}

				ok, err := lock.TryStartGames(ctx)
				require.NoError(t, err)
				assert.False(t, ok)
			})
		}
	})

	t.Run("read failure surfaces", func(t *testing.T) {
		lock := NewKVLock(&failingKeyValue{FakeKeyValue: NewFakeKeyValue()}, "l1", logger)

		_, err := lock.TryStartGames(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, errNoResponders)
	})

	t.Run("malformed value reads false", func(t *testing.T) {
		kv := NewFakeKeyValue()
		kv.data["l1.stopGameSim"] = []byte("maybe")
		lock := NewKVLock(kv, "l1", logger)

		stop, err := lock.Get(ctx, simdomain.FlagStopGameSim)
		require.NoError(t, err)
		assert.False(t, stop)
	})

	t.Run("put failure surfaces", func(t *testing.T) {
		kv := NewFakeKeyValue()
		kv.PutErr = errors.New("no responders")
		lock := NewKVLock(kv, "l1", logger)

		err := lock.Set(ctx, simdomain.FlagNewPhase, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, kv.PutErr)
	})
}

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	lock := NewMemoryLock()

	ok, err := lock.TryStartGames(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.TryStartGames(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := lock.Get(ctx, simdomain.FlagGameSim)
	require.NoError(t, err)
	assert.True(t, got)

	require.NoError(t, lock.Set(ctx, simdomain.FlagGameSim, false))
	ok, err = lock.TryStartGames(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

var errNoResponders = errors.New("no responders")

type failingKeyValue struct {
	*FakeKeyValue
}

func (f *failingKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	return nil, errNoResponders
}
