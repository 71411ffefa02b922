package utils

import (
	"testing"

	"github.com/valyala/fasthttp"
)

func TestGetQueryUint(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/v1/broadcasts?limit=25&bad=-1")

	n, err := GetQueryUint(ctx, "limit", 7)
	if err != nil || n != 25 {
		t.Fatalf("limit: %d %v", n, err)
	}
	n, err = GetQueryUint(ctx, "missing", 7)
	if err != nil || n != 7 {
		t.Fatalf("missing: %d %v", n, err)
	}
	if _, err := GetQueryUint(ctx, "bad", 7); err == nil {
		t.Fatalf("expected error for negative value")
	}
}

func TestParseIndex(t *testing.T) {
	for _, ok := range []string{"0", "42", "18446744073709551615"} {
		if _, err := ParseIndex(ok); err != nil {
			t.Fatalf("ParseIndex(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "-1", "x", "1.5"} {
		if _, err := ParseIndex(bad); err == nil {
			t.Fatalf("ParseIndex(%q): expected error", bad)
		}
	}
}

func TestExtractAPIKey(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer   tok")
	if got := ExtractAPIKey(ctx); got != "tok" {
		t.Fatalf("bearer: got %q", got)
	}
	ctx = &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(HeaderAPIKey, "k1")
	if got := ExtractAPIKey(ctx); got != "k1" {
		t.Fatalf("header: got %q", got)
	}
}
