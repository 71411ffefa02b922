package utils

import (
	"strings"

	"github.com/valyala/fasthttp"
)

const (
	HeaderIdentity  = "X-Board-Identity"
	HeaderSignature = "X-Board-Signature"
	HeaderAPIKey    = "X-API-Key"
	HeaderRequestID = "X-Request-Id"
)

// Extracts an API key from either the Authorization header or the X-API-Key header
func ExtractAPIKey(ctx *fasthttp.RequestCtx) string {
	auth := GetHeader(ctx, "Authorization")
	if auth != "" {
		parts := strings.Fields(auth)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return GetHeader(ctx, HeaderAPIKey)
}

func GetIdentityHeader(ctx *fasthttp.RequestCtx) string {
	return GetHeader(ctx, HeaderIdentity)
}

func GetSignature(ctx *fasthttp.RequestCtx) string {
	return GetHeader(ctx, HeaderSignature)
}
