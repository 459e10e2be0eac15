// Package simlock provides the simulation lock: the gameSim, stopGameSim and newPhase flags
// shared by every process driving a league.
package simlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// KVLock stores flags in a JetStream key-value bucket under "<league>.<flag>".
type KVLock struct {
	kv       jetstream.KeyValue
	leagueID string
	logger   *slog.Logger
}

// NewKVLock wraps an existing bucket.
func NewKVLock(kv jetstream.KeyValue, leagueID string, logger *slog.Logger) *KVLock {
	return &KVLock{
		kv:       kv,
		leagueID: leagueID,
		logger:   logger,
	}
}

// OpenKVLock creates or binds the bucket on nc.
func OpenKVLock(ctx context.Context, nc *nats.Conn, bucket, leagueID string, logger *slog.Logger) (*KVLock, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "league simulation flags",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open lock bucket %q: %w", bucket, err)
	}
	logger.InfoContext(ctx, "Simulation lock bucket ready",
		slog.String("bucket", bucket),
		slog.String("league_id", leagueID),
	)
	return NewKVLock(kv, leagueID, logger), nil
}

func (l *KVLock) key(flag string) string {
	return l.leagueID + "." + flag
}

// TryStartGames claims gameSim for this run. The write is conditional on the revision
// that was read, so of two processes racing for a free flag exactly one wins.
func (l *KVLock) TryStartGames(ctx context.Context) (bool, error) {
	key := l.key(simdomain.FlagGameSim)
	held := []byte(strconv.FormatBool(true))

	entry, err := l.kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		_, err = l.kv.Create(ctx, key, held)
	case err != nil:
		return false, fmt.Errorf("failed to read lock flag %s: %w", simdomain.FlagGameSim, err)
	default:
		if running, _ := strconv.ParseBool(string(entry.Value())); running {
			return false, nil
		}
		_, err = l.kv.Update(ctx, key, held, entry.Revision())
	}
	if lostRace(err) {
		l.logger.InfoContext(ctx, "Another run claimed the simulation lock first", slog.String("league_id", l.leagueID))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim lock flag %s: %w", simdomain.FlagGameSim, err)
	}
	return true, nil
}

// lostRace reports a conditional write rejected because the key moved on.
func lostRace(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *jetstream.APIError
	return errors.Is(err, jetstream.ErrKeyExists) ||
		(errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence)
}

// Set stores the flag.
func (l *KVLock) Set(ctx context.Context, flag string, value bool) error {
	if _, err := l.kv.Put(ctx, l.key(flag), []byte(strconv.FormatBool(value))); err != nil {
		return fmt.Errorf("failed to set lock flag %s: %w", flag, err)
	}
	return nil
}

// Get returns false for flags never set.
func (l *KVLock) Get(ctx context.Context, flag string) (bool, error) {
	entry, err := l.kv.Get(ctx, l.key(flag))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read lock flag %s: %w", flag, err)
	}
	v, err := strconv.ParseBool(string(entry.Value()))
	if err != nil {
		l.logger.WarnContext(ctx, "Ignoring malformed lock flag",
			slog.String("flag", flag),
			slog.String("value", string(entry.Value())),
		)
		return false, nil
	}
	return v, nil
}
