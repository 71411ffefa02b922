package auth

import (
	"net"

	"messageboard/pkg/api/router"
	"messageboard/pkg/api/utils"
	"messageboard/pkg/state/logger"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// SecConfig holds the gateway settings.
type SecConfig struct {
	RPS         float64
	Burst       int
	SigningKeys []string
	AdminKeys   map[string]struct{}
}

// Gateway is the request middleware: request ids, admin keys, caller
// identity and per-caller rate limiting.
type Gateway struct {
	cfg      SecConfig
	limiters *limiterPool
}

func NewGateway(cfg SecConfig) *Gateway {
	return &Gateway{cfg: cfg, limiters: newLimiterPool(cfg.RPS, cfg.Burst)}
}

// Close stops background limiter cleanup.
func (g *Gateway) Close() {
	g.limiters.Shutdown()
}

func (g *Gateway) Wrap(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		reqID := utils.GetHeader(ctx, utils.HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx.Response.Header.Set(utils.HeaderRequestID, reqID)
		ctx.SetUserValue("request_id", reqID)

		logger.LogRequestFast(ctx)

		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		if publicAllowedPath(ctx) {
			next(ctx)
			return
		}

		limitKey := clientIPFast(ctx)
		if utils.HasPathPrefix(ctx, "/admin") {
			key, ok := g.checkAdmin(ctx)
			if !ok {
				return
			}
			if key != "" {
				limitKey = "admin:" + key
			}
		} else {
			if !resolveIdentity(ctx, g.cfg.SigningKeys) {
				return
			}
			if id, ok := IdentityFromCtx(ctx); ok {
				limitKey = "id:" + id.String()
			}
		}

		if !g.limiters.Allow(limitKey) {
			router.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
			logger.Warn("rate_limited", "key", limitKey, "path", utils.GetPath(ctx))
			return
		}

		next(ctx)
	}
}

// checkAdmin enforces admin keys when any are configured.
func (g *Gateway) checkAdmin(ctx *fasthttp.RequestCtx) (string, bool) {
	if len(g.cfg.AdminKeys) == 0 {
		return "", true
	}
	key := utils.ExtractAPIKey(ctx)
	if key == "" {
		router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		logger.Warn("request_unauthorized", "path", utils.GetPath(ctx), "remote", ctx.RemoteAddr().String())
		return "", false
	}
	if _, ok := g.cfg.AdminKeys[key]; !ok {
		router.WriteJSONError(ctx, fasthttp.StatusForbidden, "forbidden")
		logger.Warn("request_forbidden", "reason", "unknown_admin_key", "path", utils.GetPath(ctx))
		return "", false
	}
	return key, true
}

func clientIPFast(ctx *fasthttp.RequestCtx) string {
	host := ctx.RemoteAddr().String()
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func publicAllowedPath(ctx *fasthttp.RequestCtx) bool {
	path := utils.GetPath(ctx)
	method := string(ctx.Method())
	return (path == "/healthz" || path == "/readyz") && method == fasthttp.MethodGet
}
