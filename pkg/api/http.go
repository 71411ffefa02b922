package api

import (
	"context"

	"messageboard/pkg/api/auth"
	"messageboard/pkg/api/router"
	adminRoutes "messageboard/pkg/api/routes/admin"
	frontendRoutes "messageboard/pkg/api/routes/frontend"
	"messageboard/pkg/board"
	"messageboard/pkg/store/db/storedb"

	"github.com/valyala/fasthttp"
)

// Deps are the components the HTTP API serves.
type Deps struct {
	Board  *board.Board
	DB     *storedb.DB
	Backup adminRoutes.Backuper
}

// RegisterRoutes wires all API routes onto the provided router.
func RegisterRoutes(ctx context.Context, r *router.Router, deps Deps) {
	frontendRoutes.New(ctx, deps.Board).Register(r)
	adminRoutes.New(ctx, deps.Board, deps.DB, deps.Backup).Register(r)

	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
	})
}

// Handler returns the API handler wrapped in the gateway middleware. Extra
// routes (health checks) can be added to r before calling.
func Handler(ctx context.Context, r *router.Router, deps Deps, gw *auth.Gateway) fasthttp.RequestHandler {
	RegisterRoutes(ctx, r, deps)
	return gw.Wrap(r.Handler)
}
