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

const kindBroadcast = "broadcast"

// Post appends text to the broadcast feed on behalf of sender.
func (b *Board) Post(ctx context.Context, sender models.Identity, text string) (Receipt, error) {
	tr := telemetry.Track("board.post")
	defer tr.Finish()

	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	v := b.Validate(text)
	tr.Mark("validate")
	if !v.Accepted {
		return rejected(kindBroadcast, v), nil
	}

	unlock := b.locks.Lock(keys.GenBroadcastCountKey())
	defer unlock()
	tr.Mark("lock")

	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	rec := models.Message{Sender: sender, Message: text}
	data, err := b.appendRecord(keys.GenBroadcastCountKey(), keys.GenBroadcastMessageKey, &rec)
	tr.Mark("commit")
	if err != nil {
		metrics.Writes.WithLabelValues(kindBroadcast, metrics.OutcomeError).Inc()
		logger.Error("broadcast_store_failed", "sender", sender, "error", err)
		return Receipt{}, err
	}
	logger.Debug("broadcast_stored", "sender", sender, "seq", rec.Seq)
	return stored(kindBroadcast, EventBroadcastStore, rec, data), nil
}

// BroadcastByIndex returns the i-th newest broadcast text as a quoted JSON
// string, or "" when i is past the end of the feed.
func (b *Board) BroadcastByIndex(ctx context.Context, i uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	metrics.Reads.WithLabelValues("broadcast_by_index").Inc()
	m, ok, err := byIndex(b.db, keys.GenBroadcastCountKey(), keys.GenBroadcastMessageKey, i)
	if err != nil || !ok {
		return "", err
	}
	return codec.QuoteText(m.Message)
}

// BroadcastBatch packs the n newest broadcasts into an envelope blob.
func (b *Board) BroadcastBatch(ctx context.Context, n uint64) (codec.Blob, error) {
	tr := telemetry.Track("board.broadcast_batch")
	defer tr.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.Reads.WithLabelValues("broadcast_batch").Inc()
	view, err := b.db.NewView()
	if err != nil {
		return nil, err
	}
	defer view.Close()

	recs, err := b.newest(view, keys.GenBroadcastCountKey(), keys.GenBroadcastMessageKey, n)
	tr.Mark("read")
	if err != nil {
		logger.Error("broadcast_batch_failed", "limit", n, "error", err)
		return nil, err
	}
	metrics.BatchRecords.Observe(float64(len(recs)))
	return codec.EncodeEnvelope(recs)
}
