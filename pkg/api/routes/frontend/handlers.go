package frontend

import (
	"context"
	"encoding/json"

	"messageboard/pkg/api/auth"
	"messageboard/pkg/api/router"
	"messageboard/pkg/api/utils"
	"messageboard/pkg/board"
	"messageboard/pkg/models"
	"messageboard/pkg/state/logger"

	"github.com/valyala/fasthttp"
)

// Handlers serves the board operations over HTTP.
type Handlers struct {
	ctx   context.Context
	board *board.Board
}

// New binds handlers to b. ctx bounds every board call; cancel it to refuse
// work during shutdown.
func New(ctx context.Context, b *board.Board) *Handlers {
	return &Handlers{ctx: ctx, board: b}
}

// Register wires the board routes onto r.
func (h *Handlers) Register(r *router.Router) {
	r.POST("/v1/broadcasts", auth.RequireIdentity(h.Post))
	r.GET("/v1/broadcasts", h.ListBroadcasts)
	r.GET("/v1/broadcasts/{index}", h.GetBroadcast)
	r.GET("/v1/char-limit", h.CharLimit)

	r.POST("/v1/messages", auth.RequireIdentity(h.Send))
	r.GET("/v1/threads/{a}/{b}/messages", h.ListThreadMessages)
	r.GET("/v1/threads/{a}/{b}/messages/{index}", h.GetThreadMessage)

	r.GET("/v1/friends/{identity}", h.Friends)
	r.GET("/v1/friends/{identity}/string", h.FriendsString)
}

func (h *Handlers) fail(ctx *fasthttp.RequestCtx, op string, err error) {
	logger.Error("board_op_failed", "op", op, "request_id", ctx.UserValue("request_id"), "error", err)
	if h.ctx.Err() != nil {
		router.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, "shutting down")
		return
	}
	router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "internal error")
}

func (h *Handlers) Post(ctx *fasthttp.RequestCtx) {
	sender, _ := auth.IdentityFromCtx(ctx)
	body, ok := router.ExtractPayloadOrFail(ctx)
	if !ok {
		return
	}
	var req PostRequest
	if err := json.Unmarshal(body, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "message required")
		return
	}
	receipt, err := h.board.Post(h.ctx, sender, *req.Message)
	if err != nil {
		h.fail(ctx, "post", err)
		return
	}
	_ = router.WriteJSON(ctx, receipt)
}

func (h *Handlers) Send(ctx *fasthttp.RequestCtx) {
	sender, _ := auth.IdentityFromCtx(ctx)
	body, ok := router.ExtractPayloadOrFail(ctx)
	if !ok {
		return
	}
	var req SendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return
	}
	recipient, err := models.ParseIdentity(req.To)
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid recipient")
		return
	}
	if req.Message == nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "message required")
		return
	}
	receipt, err := h.board.Send(h.ctx, sender, recipient, *req.Message)
	if err != nil {
		h.fail(ctx, "send", err)
		return
	}
	_ = router.WriteJSON(ctx, receipt)
}

func (h *Handlers) limit(ctx *fasthttp.RequestCtx) (uint64, bool) {
	n, err := utils.GetQueryUint(ctx, "limit", uint64(h.board.MaxBatch()))
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return 0, false
	}
	return n, true
}

func index(ctx *fasthttp.RequestCtx) (uint64, bool) {
	raw, ok := router.ExtractParamOrFail(ctx, "index", "index required")
	if !ok {
		return 0, false
	}
	i, err := utils.ParseIndex(raw)
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return 0, false
	}
	return i, true
}

func identityParam(ctx *fasthttp.RequestCtx, name string) (models.Identity, bool) {
	raw, ok := router.ExtractParamOrFail(ctx, name, name+" required")
	if !ok {
		return "", false
	}
	id, err := models.ParseIdentity(raw)
	if err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid identity: "+name)
		return "", false
	}
	return id, true
}

func pairParams(ctx *fasthttp.RequestCtx) (models.Identity, models.Identity, bool) {
	a, ok := identityParam(ctx, "a")
	if !ok {
		return "", "", false
	}
	b, ok := identityParam(ctx, "b")
	if !ok {
		return "", "", false
	}
	return a, b, true
}

func (h *Handlers) ListBroadcasts(ctx *fasthttp.RequestCtx) {
	n, ok := h.limit(ctx)
	if !ok {
		return
	}
	blob, err := h.board.BroadcastBatch(h.ctx, n)
	if err != nil {
		h.fail(ctx, "broadcast_batch", err)
		return
	}
	router.WriteResult(ctx, blob)
}

func (h *Handlers) GetBroadcast(ctx *fasthttp.RequestCtx) {
	i, ok := index(ctx)
	if !ok {
		return
	}
	text, err := h.board.BroadcastByIndex(h.ctx, i)
	if err != nil {
		h.fail(ctx, "broadcast_by_index", err)
		return
	}
	router.WriteResult(ctx, text)
}

func (h *Handlers) CharLimit(ctx *fasthttp.RequestCtx) {
	router.WriteResult(ctx, h.board.CharLimit())
}

func (h *Handlers) ListThreadMessages(ctx *fasthttp.RequestCtx) {
	a, b, ok := pairParams(ctx)
	if !ok {
		return
	}
	n, ok := h.limit(ctx)
	if !ok {
		return
	}
	blob, err := h.board.ThreadBatch(h.ctx, a, b, n)
	if err != nil {
		h.fail(ctx, "thread_batch", err)
		return
	}
	router.WriteResult(ctx, blob)
}

func (h *Handlers) GetThreadMessage(ctx *fasthttp.RequestCtx) {
	a, b, ok := pairParams(ctx)
	if !ok {
		return
	}
	i, ok := index(ctx)
	if !ok {
		return
	}
	text, err := h.board.MessageByIndex(h.ctx, a, b, i)
	if err != nil {
		h.fail(ctx, "message_by_index", err)
		return
	}
	router.WriteResult(ctx, text)
}

func (h *Handlers) Friends(ctx *fasthttp.RequestCtx) {
	id, ok := identityParam(ctx, "identity")
	if !ok {
		return
	}
	blob, err := h.board.Friends(h.ctx, id)
	if err != nil {
		h.fail(ctx, "friends", err)
		return
	}
	router.WriteResult(ctx, blob)
}

func (h *Handlers) FriendsString(ctx *fasthttp.RequestCtx) {
	id, ok := identityParam(ctx, "identity")
	if !ok {
		return
	}
	s, err := h.board.FriendsString(h.ctx, id)
	if err != nil {
		h.fail(ctx, "friends_string", err)
		return
	}
	router.WriteResult(ctx, s)
}
