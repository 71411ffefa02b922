package app

import (
	"context"
	"time"

	"messageboard/pkg/api"
	"messageboard/pkg/api/router"
	adminRoutes "messageboard/pkg/api/routes/admin"

	"github.com/valyala/fasthttp"
)

// readyzHandlerFast reports whether the store is open.
func (a *App) readyzHandlerFast(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	if !a.db.Ready() || a.State() != "running" {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		_, _ = ctx.WriteString("{\"status\":\"not ready\"}")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_, _ = ctx.WriteString("{\"status\":\"ok\",\"version\":\"" + ver + "\"}")
}

func (a *App) healthzHandlerFast(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = ctx.WriteString("{\"status\":\"ok\"}")
}

// handler builds the full request pipeline: health routes, API routes and
// the gateway middleware.
func (a *App) handler(ctx context.Context) fasthttp.RequestHandler {
	r := router.New()
	r.GET("/healthz", a.healthzHandlerFast)
	r.GET("/readyz", a.readyzHandlerFast)

	deps := api.Deps{Board: a.board, DB: a.db}
	if a.backup != nil {
		deps.Backup = adminRoutes.Backuper(a.backup)
	}
	return api.Handler(ctx, r, deps, a.gw)
}

// startHTTP builds and starts the fasthttp server, returning a channel that delivers errors.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	const (
		readBufferSize       = 64 * 1024
		readTimeout          = 10 * time.Second
		writeTimeout         = 10 * time.Second
		idleTimeout          = 30 * time.Second
		maxKeepaliveDuration = 2 * time.Minute
	)
	a.srvFast = &fasthttp.Server{
		Handler:              a.handler(ctx),
		Name:                 "messageboard",
		ReadBufferSize:       readBufferSize,
		MaxRequestBodySize:   int(a.eff.Config.Server.MaxBodySize.Int64()),
		ReduceMemoryUsage:    true,
		ReadTimeout:          readTimeout,
		WriteTimeout:         writeTimeout,
		IdleTimeout:          idleTimeout,
		MaxKeepaliveDuration: maxKeepaliveDuration,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srvFast.ListenAndServe(a.eff.Addr)
	}()
	return errCh
}
