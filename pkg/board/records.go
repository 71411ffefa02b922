package board

import (
	"encoding/json"
	"fmt"

	"messageboard/pkg/models"
	"messageboard/pkg/store/db/storedb"
	"messageboard/pkg/store/keys"
)

// appendRecord writes rec at seq=count and bumps the counter in one batch,
// together with any extra marker keys. Callers hold the partition lock.
func (b *Board) appendRecord(countKey string, recordKey func(uint64) string, rec *models.Message, markers ...string) ([]byte, error) {
	count, err := readCount(b.db, countKey)
	if err != nil {
		return nil, err
	}
	rec.Seq = count
	rec.TS = b.now().UnixNano()
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	batch := b.db.NewBatch()
	if err := batch.Set(recordKey(count), data); err != nil {
		batch.Discard()
		return nil, err
	}
	if err := batch.Set(countKey, keys.FormatCount(count+1)); err != nil {
		batch.Discard()
		return nil, err
	}
	for _, m := range markers {
		if err := batch.Set(m, nil); err != nil {
			batch.Discard()
			return nil, err
		}
	}
	if err := b.db.Commit(batch); err != nil {
		return nil, fmt.Errorf("commit record: %w", err)
	}
	return data, nil
}

func readRecord(r reader, key string) (models.Message, error) {
	raw, err := r.GetKey(key)
	if err != nil {
		if storedb.IsNotFound(err) {
			return models.Message{}, fmt.Errorf("%w: missing %s", errCorruptRecord, key)
		}
		return models.Message{}, err
	}
	var m models.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.Message{}, fmt.Errorf("%w: %s: %v", errCorruptRecord, key, err)
	}
	return m, nil
}

// newest reads the min(n, count, maxBatch) newest records of a partition in
// ascending seq order.
func (b *Board) newest(r reader, countKey string, recordKey func(uint64) string, n uint64) ([]models.Message, error) {
	count, err := readCount(r, countKey)
	if err != nil {
		return nil, err
	}
	k := n
	if k > count {
		k = count
	}
	if k > uint64(b.maxBatch) {
		k = uint64(b.maxBatch)
	}
	out := make([]models.Message, 0, k)
	for seq := count - k; seq < count; seq++ {
		m, err := readRecord(r, recordKey(seq))
		if err != nil {
			return nil, err
		}
		m.Seq = seq
		out = append(out, m)
	}
	return out, nil
}

// byIndex returns the record at newest-first index i and false when i is out of range.
func byIndex(r reader, countKey string, recordKey func(uint64) string, i uint64) (models.Message, bool, error) {
	count, err := readCount(r, countKey)
	if err != nil {
		return models.Message{}, false, err
	}
	if i >= count {
		return models.Message{}, false, nil
	}
	m, err := readRecord(r, recordKey(count-1-i))
	if err != nil {
		return models.Message{}, false, err
	}
	return m, true, nil
}
