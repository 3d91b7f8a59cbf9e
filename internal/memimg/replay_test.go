package memimg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(t *testing.T, p *Processor[*tally], cmds ...bump) {
	t.Helper()
	for _, c := range cmds {
		require.NoError(t, p.Apply(context.Background(), c))
	}
}

func TestReplayMatchesLiveApply(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	live := newTestProcessor(t, log)
	applyAll(t, live, inc(1, "a"), inc(2, "b"), inc(3, "a", "c"), inc(-1, "b"))

	restarted := newTestProcessor(t, log)
	require.NoError(t, restarted.Replay(ctx))

	assert.Equal(t, snapshot(live), snapshot(restarted))
	assert.Equal(t, live.Seq(), restarted.Seq())
	assert.Equal(t, 4, log.Len(), "replay must not append")
}

func TestReplayTwiceYieldsEqualStates(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	applyAll(t, newTestProcessor(t, log), inc(4, "x"), inc(1, "y", "x"))

	first := newTestProcessor(t, log)
	second := newTestProcessor(t, log)
	require.NoError(t, first.Replay(ctx))
	require.NoError(t, second.Replay(ctx))

	assert.Equal(t, snapshot(first), snapshot(second))
	assert.Equal(t, map[string]int{"x": 5, "y": 1}, snapshot(first))
}

func TestReplayEmptyLog(t *testing.T) {
	p := newTestProcessor(t, NewMemoryLog())

	require.NoError(t, p.Replay(context.Background()))
	assert.Empty(t, snapshot(p))
	assert.Equal(t, int64(0), p.Seq())
}

func TestReplayThenApplyContinuesSequence(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	applyAll(t, newTestProcessor(t, log), inc(1, "a"), inc(1, "a"))

	p := newTestProcessor(t, log)
	require.NoError(t, p.Replay(ctx))
	require.NoError(t, p.Apply(ctx, inc(1, "a")))

	assert.Equal(t, int64(3), p.Seq())
	assert.Equal(t, 3, log.Len())
	assert.Equal(t, map[string]int{"a": 3}, snapshot(p))
}

func TestReplayDecodeCorruption(t *testing.T) {
	ctx := context.Background()
	good, err := jsonCodec{}.Encode(inc(1, "a"))
	require.NoError(t, err)
	log := NewMemoryLog(good, []byte(`{"keys":`), good)

	rec := &fakeRecorder{}
	p := newTestProcessor(t, log, WithRecorder(rec))
	err = p.Replay(ctx)
	require.Error(t, err)

	assert.True(t, IsKind(err, KindReplayCorruption))
	assert.ErrorIs(t, err, ErrReplayCorruption)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "decode", pe.Op)
	assert.Equal(t, int64(2), pe.Position)

	// No partially replayed state.
	assert.Empty(t, snapshot(p))
	assert.Equal(t, int64(0), p.Seq())
	require.Len(t, rec.replays, 1)
	assert.Equal(t, 1, rec.replays[0])
	assert.Error(t, rec.replayed[0])

	// Apply is refused until the log replays cleanly.
	err = p.Apply(ctx, inc(1, "a"))
	assert.True(t, IsKind(err, KindReplayCorruption))
	assert.Equal(t, 3, log.Len())
}

func TestReplayApplyCorruption(t *testing.T) {
	// An entry that fails to apply signals a command/state mismatch.
	bad, err := jsonCodec{}.Encode(bump{Keys: []string{"a"}, By: 1, FailAt: 0})
	require.NoError(t, err)
	good, err := jsonCodec{}.Encode(inc(1, "a"))
	require.NoError(t, err)

	p := newTestProcessor(t, NewMemoryLog(good, bad))
	err = p.Replay(context.Background())
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindReplayCorruption, pe.Kind)
	assert.Equal(t, "apply", pe.Op)
	assert.Equal(t, "bump", pe.Type)
	assert.Equal(t, int64(2), pe.Position)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, snapshot(p))
}

func TestReplayReadError(t *testing.T) {
	good, err := jsonCodec{}.Encode(inc(1, "a"))
	require.NoError(t, err)
	ioErr := errors.New("short read")

	p := newTestProcessor(t, &brokenReadLog{entries: [][]byte{good}, err: ioErr})
	err = p.Replay(context.Background())
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "read", pe.Op)
	assert.Equal(t, int64(2), pe.Position)
	assert.ErrorIs(t, err, ioErr)
	assert.Empty(t, snapshot(p))
}

func TestReplayRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	good, err := jsonCodec{}.Encode(inc(2, "a"))
	require.NoError(t, err)
	log := &brokenReadLog{entries: [][]byte{good}, err: errors.New("transient")}

	p := newTestProcessor(t, log)
	require.Error(t, p.Replay(ctx))

	// The caller's retry policy: fix the source and replay again.
	log.err = nil
	require.NoError(t, p.Replay(ctx))
	assert.Equal(t, map[string]int{"a": 2}, snapshot(p))
	require.NoError(t, p.Apply(ctx, inc(1, "a")))
}

func TestReplayCalledTwice(t *testing.T) {
	ctx := context.Background()
	p := newTestProcessor(t, NewMemoryLog())

	require.NoError(t, p.Replay(ctx))
	assert.ErrorIs(t, p.Replay(ctx), ErrAlreadyReplayed)
}

func TestReplayAfterApply(t *testing.T) {
	ctx := context.Background()
	p := newTestProcessor(t, NewMemoryLog())
	require.NoError(t, p.Apply(ctx, inc(1, "a")))

	assert.ErrorIs(t, p.Replay(ctx), ErrReplayAfterApply)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	applyAll(t, newTestProcessor(t, log), inc(9, "z"))

	p, err := Open(ctx, newTally(), Log(log), Codec[*tally](jsonCodec{}), WithLogger(discardLogger()))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"z": 9}, snapshot(p))

	_, err = Open(ctx, newTally(), Log(NewMemoryLog([]byte("garbage"))), Codec[*tally](jsonCodec{}), WithLogger(discardLogger()))
	assert.True(t, IsKind(err, KindReplayCorruption))
}

func TestReplayDoesNotMutateInitialState(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryLog()
	applyAll(t, newTestProcessor(t, log), inc(1, "a"))

	initial := newTally()
	p := New(initial, Log(log), Codec[*tally](jsonCodec{}), WithLogger(discardLogger()))
	require.NoError(t, p.Replay(ctx))

	assert.Empty(t, initial.counts)
	assert.Equal(t, map[string]int{"a": 1}, snapshot(p))
}
