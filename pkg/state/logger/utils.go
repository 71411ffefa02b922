package logger

import (
	"strings"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
)

var sensitiveHeaders = map[string]struct{}{
	"x-board-signature": {},
	"x-api-key":         {},
	"authorization":     {},
}

func maskedValue(v string) string {
	if v == "" {
		return ""
	}
	// keep first and last rune, mask the middle with fixed asterisks
	l := utf8.RuneCountInString(v)
	if l <= 2 {
		return "<redacted>"
	}
	first, _ := utf8.DecodeRuneInString(v)
	last, _ := utf8.DecodeLastRuneInString(v)
	return string(first) + "*****" + string(last)
}

func redactHeaderValue(k string, v string) string {
	if v == "" {
		return ""
	}
	if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok {
		return maskedValue(v)
	}
	return v
}

// SafeHeadersFast renders request headers for logging with secrets masked.
func SafeHeadersFast(ctx *fasthttp.RequestCtx) string {
	parts := make([]string, 0)
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		key := string(k)
		parts = append(parts, key+"="+redactHeaderValue(key, string(v)))
	})
	return strings.Join(parts, "; ")
}

func LogRequestFast(ctx *fasthttp.RequestCtx) {
	if Log == nil {
		return
	}
	Debug("incoming_request",
		"method", string(ctx.Method()),
		"remote", ctx.RemoteAddr().String(),
		"path", string(ctx.Path()),
		"headers", SafeHeadersFast(ctx),
	)
}
