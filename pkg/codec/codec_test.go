package codec

import (
	"encoding/json"
	"strings"
	"testing"

	"messageboard/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.MustIdentity("0x00000000000000000000000000000000000000a1")
	bob   = models.MustIdentity("0x00000000000000000000000000000000000000b2")
)

func TestBlobStringAndParse(t *testing.T) {
	b := Blob(`{"a":1}`)
	s := b.String()
	if !strings.HasPrefix(s, "0x") {
		t.Fatalf("missing 0x prefix: %s", s)
	}
	if s != strings.ToLower(s) {
		t.Fatalf("expected lowercase hex: %s", s)
	}
	back, err := ParseBlob(s)
	require.NoError(t, err)
	assert.Equal(t, b, back)

	noPrefix, err := ParseBlob(strings.TrimPrefix(s, "0x"))
	require.NoError(t, err)
	assert.Equal(t, b, noPrefix)
}

func TestParseBlobRejectsGarbage(t *testing.T) {
	for _, in := range []string{"0xzz", "0x123", "hello"} {
		if _, err := ParseBlob(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestBlobJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Blob{"result": Blob("hi")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"0x6869"}`, string(data))

	var out map[string]Blob
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "hi", string(out["result"]))
}

func TestQuoteTextNoHTMLEscape(t *testing.T) {
	cases := map[string]string{
		"hello":        `"hello"`,
		"a < b & c":    `"a < b & c"`,
		`say "hi"`:     `"say \"hi\""`,
		"":             `""`,
		"line\nbreak":  `"line\nbreak"`,
		"héllo wörld": `"héllo wörld"`,
	}
	for in, want := range cases {
		got, err := QuoteText(in)
		if err != nil {
			t.Fatalf("QuoteText(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("QuoteText(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestEnvelopeKeysAscendingAbsolute(t *testing.T) {
	recs := []models.Message{
		{Sender: alice, Message: "third", Seq: 7},
		{Sender: alice, Message: "first", Seq: 5},
		{Sender: bob, Recipient: alice, Message: "second", Seq: 6},
	}
	blob, err := EncodeEnvelope(recs)
	require.NoError(t, err)

	s := string(blob)
	i5, i6, i7 := strings.Index(s, `"5":`), strings.Index(s, `"6":`), strings.Index(s, `"7":`)
	if i5 < 0 || i6 < 0 || i7 < 0 || !(i5 < i6 && i6 < i7) {
		t.Fatalf("keys missing or out of order: %s", s)
	}

	env, err := DecodeEnvelope(blob)
	require.NoError(t, err)
	require.Len(t, env.Records, 3)
	assert.Equal(t, "first", env.Records[0].Message)
	assert.Equal(t, bob, env.Records[1].Sender)
	assert.Equal(t, alice, env.Records[1].Recipient)

	newest := env.Newest()
	assert.Equal(t, "third", newest[0].Message)
	assert.Equal(t, "first", newest[2].Message)
}

func TestEnvelopeEmpty(t *testing.T) {
	blob, err := EncodeEnvelope(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(blob))
	assert.Equal(t, "0x7b7d", blob.String())

	env, err := DecodeEnvelope(blob)
	require.NoError(t, err)
	assert.Empty(t, env.Records)
}

func TestDecodeEnvelopeRejectsNonNumericKey(t *testing.T) {
	if _, err := DecodeEnvelope(Blob(`{"x":{"message":"m"}}`)); err == nil {
		t.Fatalf("expected error for non numeric key")
	}
}

func TestFriendsRoundTrip(t *testing.T) {
	blob, err := EncodeFriends(nil)
	require.NoError(t, err)
	assert.Equal(t, `{"friends":[]}`, string(blob))

	blob, err = EncodeFriends([]models.Identity{alice, bob})
	require.NoError(t, err)
	ids, err := DecodeFriends(blob)
	require.NoError(t, err)
	assert.Equal(t, []models.Identity{alice, bob}, ids)
}
