package router

import (
	"fmt"

	"github.com/valyala/fasthttp"
)

func PathParam(ctx *fasthttp.RequestCtx, param string) string {
	if v := ctx.UserValue(param); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func ExtractParamOrFail(ctx *fasthttp.RequestCtx, param string, missingMsg string) (string, bool) {
	val := PathParam(ctx, param)
	if val == "" {
		WriteJSONError(ctx, fasthttp.StatusBadRequest, missingMsg)
		return "", false
	}
	return val, true
}

// ExtractPayloadOrFail returns a copy of the request body, rejecting empty bodies.
func ExtractPayloadOrFail(ctx *fasthttp.RequestCtx) ([]byte, bool) {
	body := ctx.PostBody()
	if len(body) == 0 {
		WriteJSONError(ctx, fasthttp.StatusBadRequest, "request body required")
		return nil, false
	}
	ref := make([]byte, len(body))
	copy(ref, body)
	return ref, true
}
