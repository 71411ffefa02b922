package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"messageboard/pkg/models"
)

// Envelope is the batch read payload: a JSON object keyed by each record's
// absolute sequence number, emitted in ascending order.
type Envelope struct {
	Records []models.Message
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	recs := make([]models.Message, len(e.Records))
	copy(recs, e.Records)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range recs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.FormatUint(r.Seq, 10))
		buf.WriteString(`":`)
		data, err := marshalNoEscape(r)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]models.Message
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	recs := make([]models.Message, 0, len(raw))
	for k, m := range raw {
		seq, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return fmt.Errorf("decode envelope: invalid key %q", k)
		}
		m.Seq = seq
		recs = append(recs, m)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	e.Records = recs
	return nil
}

// Newest returns the records newest first, matching by-index addressing.
func (e Envelope) Newest() []models.Message {
	out := make([]models.Message, len(e.Records))
	for i, r := range e.Records {
		out[len(out)-1-i] = r
	}
	return out
}

// EncodeEnvelope packs records into a blob.
func EncodeEnvelope(records []models.Message) (Blob, error) {
	data, err := Envelope{Records: records}.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return Blob(data), nil
}

func DecodeEnvelope(b Blob) (Envelope, error) {
	var e Envelope
	if err := e.UnmarshalJSON(b); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// EncodeFriends packs a friend set into a blob.
func EncodeFriends(ids []models.Identity) (Blob, error) {
	if ids == nil {
		ids = []models.Identity{}
	}
	return Encode(models.Friends{Friends: ids})
}

func DecodeFriends(b Blob) ([]models.Identity, error) {
	var f models.Friends
	if err := Decode(b, &f); err != nil {
		return nil, err
	}
	return f.Friends, nil
}
