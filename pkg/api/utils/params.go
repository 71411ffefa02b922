package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

// GetHeader returns header value with trimming
func GetHeader(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.Request.Header.Peek(key)))
}

// GetQuery returns query parameter value with trimming
func GetQuery(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

// GetQueryUint parses an unsigned query parameter. Missing values yield def;
// malformed values are an error.
func GetQueryUint(ctx *fasthttp.RequestCtx, key string, def uint64) (uint64, error) {
	value := GetQuery(ctx, key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return n, nil
}

// ParseIndex parses a non-negative record index from a path segment.
func ParseIndex(raw string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index: %q", raw)
	}
	return n, nil
}

// GetPath returns the request path.
func GetPath(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Path())
}

// HasPathPrefix reports whether the request path starts with prefix.
func HasPathPrefix(ctx *fasthttp.RequestCtx, prefix string) bool {
	return strings.HasPrefix(GetPath(ctx), prefix)
}
