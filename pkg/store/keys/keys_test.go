package keys

import (
	"bytes"
	"testing"

	"messageboard/pkg/models"
)

var (
	a = models.MustIdentity("0x00000000000000000000000000000000000000a1")
	b = models.MustIdentity("0x00000000000000000000000000000000000000b2")
)

func TestThreadKeysAreOrderIndependent(t *testing.T) {
	if GenThreadCountKey(a, b) != GenThreadCountKey(b, a) {
		t.Fatalf("count key depends on argument order")
	}
	if GenThreadMessageKey(a, b, 3) != GenThreadMessageKey(b, a, 3) {
		t.Fatalf("message key depends on argument order")
	}
	if GenThreadMessagePrefix(a, b) != GenThreadMessagePrefix(b, a) {
		t.Fatalf("prefix depends on argument order")
	}
}

func TestPadSeqSortsLexicographically(t *testing.T) {
	if !(GenBroadcastMessageKey(9) < GenBroadcastMessageKey(10)) {
		t.Fatalf("padded keys must sort numerically")
	}
	if len(PadSeq(0)) != SeqPadWidth {
		t.Fatalf("unexpected pad width %d", len(PadSeq(0)))
	}
}

func TestParseRoundTrip(t *testing.T) {
	bp, err := ParseBroadcastMessageKey(GenBroadcastMessageKey(42))
	if err != nil || bp.Seq != 42 {
		t.Fatalf("broadcast parse: %+v %v", bp, err)
	}

	mp, err := ParseThreadMessageKey(GenThreadMessageKey(b, a, 7))
	if err != nil {
		t.Fatalf("thread parse: %v", err)
	}
	if mp.Lo != a || mp.Hi != b || mp.Seq != 7 {
		t.Fatalf("unexpected parts %+v", mp)
	}

	cp, err := ParseThreadCountKey(GenThreadCountKey(b, a))
	if err != nil || cp.Lo != a || cp.Hi != b {
		t.Fatalf("count parse: %+v %v", cp, err)
	}

	fp, err := ParseFriendKey(GenFriendKey(b, a))
	if err != nil || fp.Identity != b || fp.Friend != a {
		t.Fatalf("friend parse: %+v %v", fp, err)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []func() error{
		func() error { _, err := ParseBroadcastMessageKey("b:count"); return err },
		func() error { _, err := ParseBroadcastMessageKey("b:m:abc"); return err },
		func() error { _, err := ParseThreadMessageKey("p:x:y:m:1"); return err },
		func() error { _, err := ParseThreadCountKey("p:" + string(b) + ":" + string(a) + ":count"); return err },
		func() error { _, err := ParseFriendKey("f:" + string(a)); return err },
		func() error { _, err := ParseCount([]byte("nope")); return err },
	}
	for i, fn := range bad {
		if fn() == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestCountRoundTrip(t *testing.T) {
	n, err := ParseCount(FormatCount(12345))
	if err != nil || n != 12345 {
		t.Fatalf("count round trip: %d %v", n, err)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	if got := PrefixUpperBound("b:m:"); !bytes.Equal(got, []byte("b:m;")) {
		t.Fatalf("unexpected bound %q", got)
	}
	if got := PrefixUpperBound(""); got != nil {
		t.Fatalf("empty prefix should be unbounded, got %q", got)
	}
	if got := PrefixUpperBound("a\xff"); !bytes.Equal(got, []byte("b")) {
		t.Fatalf("unexpected bound %q", got)
	}
}
