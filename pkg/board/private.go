package board

import (
	"context"

	"messageboard/pkg/codec"
	"messageboard/pkg/models"
	"messageboard/pkg/state/logger"
	"messageboard/pkg/state/metrics"
	"messageboard/pkg/state/telemetry"
	"messageboard/pkg/store/keys"
)

const kindThread = "thread"

// Send appends text to the thread {sender, recipient} and records each party
// as a friend of the other in the same commit.
func (b *Board) Send(ctx context.Context, sender, recipient models.Identity, text string) (Receipt, error) {
	tr := telemetry.Track("board.send")
	defer tr.Finish()

	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	v := b.Validate(text)
	tr.Mark("validate")
	if !v.Accepted {
		return rejected(kindThread, v), nil
	}

	unlock := b.locks.Lock(keys.GenThreadLockKey(sender, recipient))
	defer unlock()
	tr.Mark("lock")

	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	rec := models.Message{Sender: sender, Recipient: recipient, Message: text}
	recordKey := func(seq uint64) string { return keys.GenThreadMessageKey(sender, recipient, seq) }
	data, err := b.appendRecord(
		keys.GenThreadCountKey(sender, recipient),
		recordKey,
		&rec,
		keys.GenFriendKey(sender, recipient),
		keys.GenFriendKey(recipient, sender),
	)
	tr.Mark("commit")
	if err != nil {
		metrics.Writes.WithLabelValues(kindThread, metrics.OutcomeError).Inc()
		logger.Error("message_store_failed", "sender", sender, "recipient", recipient, "error", err)
		return Receipt{}, err
	}
	logger.Debug("message_stored", "sender", sender, "recipient", recipient, "seq", rec.Seq)
	return stored(kindThread, EventMessageStore, rec, data), nil
}

// MessageByIndex returns the i-th newest text of thread {x, y} as a quoted
// JSON string, or "" when i is out of range. Argument order does not matter.
func (b *Board) MessageByIndex(ctx context.Context, x, y models.Identity, i uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	metrics.Reads.WithLabelValues("message_by_index").Inc()
	recordKey := func(seq uint64) string { return keys.GenThreadMessageKey(x, y, seq) }
	m, ok, err := byIndex(b.db, keys.GenThreadCountKey(x, y), recordKey, i)
	if err != nil || !ok {
		return "", err
	}
	return codec.QuoteText(m.Message)
}

// ThreadBatch packs the n newest records of thread {x, y} into an envelope blob.
func (b *Board) ThreadBatch(ctx context.Context, x, y models.Identity, n uint64) (codec.Blob, error) {
	tr := telemetry.Track("board.thread_batch")
	defer tr.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.Reads.WithLabelValues("thread_batch").Inc()
	view, err := b.db.NewView()
	if err != nil {
		return nil, err
	}
	defer view.Close()

	recordKey := func(seq uint64) string { return keys.GenThreadMessageKey(x, y, seq) }
	recs, err := b.newest(view, keys.GenThreadCountKey(x, y), recordKey, n)
	tr.Mark("read")
	if err != nil {
		logger.Error("thread_batch_failed", "x", x, "y", y, "limit", n, "error", err)
		return nil, err
	}
	metrics.BatchRecords.Observe(float64(len(recs)))
	return codec.EncodeEnvelope(recs)
}
