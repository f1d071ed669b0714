package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "livonto/internal/app/outbox"
	"livonto/internal/app/uow"
	"livonto/internal/infra/storage/memory"
)

type captureSink struct {
	appended []appoutbox.EventRecord
}

func (c *captureSink) Append(ctx context.Context, records []appoutbox.EventRecord) error {
	c.appended = append(c.appended, records...)
	return nil
}

func stagedFixture(t *testing.T) (*Staged, *captureSink, context.Context, context.Context) {
	t.Helper()
	sink := &captureSink{}
	staged := &Staged{store: sink, byUnit: make(map[uow.UnitOfWork][]appoutbox.EventRecord)}

	factory := memory.NewFactory()
	unitA, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	unitB, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctxA := uow.Bind(context.Background(), unitA)
	ctxB := uow.Bind(context.Background(), unitB)
	return staged, sink, ctxA, ctxB
}

func TestStagedFlushIsScopedToUnitOfWork(t *testing.T) {
	staged, sink, ctxA, ctxB := stagedFixture(t)

	require.NoError(t, staged.Add(ctxA, appoutbox.EventRecord{ID: "ev-a1"}))
	require.NoError(t, staged.Add(ctxB, appoutbox.EventRecord{ID: "ev-b1"}))
	require.NoError(t, staged.Add(ctxA, appoutbox.EventRecord{ID: "ev-a2"}))

	require.NoError(t, staged.Flush(ctxA))
	require.Len(t, sink.appended, 2)
	assert.Equal(t, "ev-a1", sink.appended[0].ID)
	assert.Equal(t, "ev-a2", sink.appended[1].ID)

	// The other command's records stay staged until its own flush.
	require.NoError(t, staged.Flush(ctxB))
	require.Len(t, sink.appended, 3)
	assert.Equal(t, "ev-b1", sink.appended[2].ID)
}

func TestStagedDiscardDropsOnlyOwnRecords(t *testing.T) {
	staged, sink, ctxA, ctxB := stagedFixture(t)

	require.NoError(t, staged.Add(ctxA, appoutbox.EventRecord{ID: "ev-a1"}))
	require.NoError(t, staged.Add(ctxB, appoutbox.EventRecord{ID: "ev-b1"}))

	staged.Discard(ctxA)
	require.NoError(t, staged.Flush(ctxA))
	assert.Empty(t, sink.appended)

	require.NoError(t, staged.Flush(ctxB))
	require.Len(t, sink.appended, 1)
	assert.Equal(t, "ev-b1", sink.appended[0].ID)
}

func TestStagedWithoutUnitUsesSharedBucket(t *testing.T) {
	staged, sink, _, _ := stagedFixture(t)
	ctx := context.Background()

	require.NoError(t, staged.Add(ctx, appoutbox.EventRecord{ID: "ev-loose"}))
	require.NoError(t, staged.Flush(ctx))
	require.Len(t, sink.appended, 1)
	assert.Equal(t, "ev-loose", sink.appended[0].ID)
}
