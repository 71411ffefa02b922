package models

import (
	"errors"
	"testing"
)

func TestParseIdentity(t *testing.T) {
	const canonical = "00000000000000000000000000000000000000ab"
	cases := []struct {
		in      string
		want    Identity
		wantErr bool
	}{
		{in: canonical, want: canonical},
		{in: "0x" + canonical, want: canonical},
		{in: "0X00000000000000000000000000000000000000AB", want: canonical},
		{in: "  0x" + canonical + "\n", want: canonical},
		{in: "0x1234", wantErr: true},
		{in: "", wantErr: true},
		{in: "0xzz000000000000000000000000000000000000ab", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseIdentity(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidIdentity) {
				t.Fatalf("ParseIdentity(%q): expected ErrInvalidIdentity, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseIdentity(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseIdentity(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPairIsSymmetric(t *testing.T) {
	a := MustIdentity("0x00000000000000000000000000000000000000a1")
	b := MustIdentity("0x00000000000000000000000000000000000000b2")
	lo1, hi1 := Pair(a, b)
	lo2, hi2 := Pair(b, a)
	if lo1 != lo2 || hi1 != hi2 {
		t.Fatalf("pair not symmetric: (%s,%s) vs (%s,%s)", lo1, hi1, lo2, hi2)
	}
	if lo1 != a {
		t.Fatalf("expected %s first, got %s", a, lo1)
	}
	if lo, hi := Pair(a, a); lo != a || hi != a {
		t.Fatalf("self pair changed: %s %s", lo, hi)
	}
	if a.Hex() != "0x"+a.String() {
		t.Fatalf("unexpected hex form %s", a.Hex())
	}
}
