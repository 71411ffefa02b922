package admin

import (
	"context"
	"errors"

	"messageboard/pkg/api/router"
	"messageboard/pkg/board"
	"messageboard/pkg/models"
	"messageboard/pkg/state/logger"
	"messageboard/pkg/store/db/storedb"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var ErrBackupsDisabled = errors.New("backups disabled")

// Backuper takes an on-demand checkpoint.
type Backuper interface {
	RunNow(ctx context.Context) (models.BackupResult, error)
}

type Handlers struct {
	ctx    context.Context
	board  *board.Board
	db     *storedb.DB
	backup Backuper
}

// New builds admin handlers. backup may be nil when checkpoints are unavailable.
func New(ctx context.Context, b *board.Board, db *storedb.DB, backup Backuper) *Handlers {
	return &Handlers{ctx: ctx, board: b, db: db, backup: backup}
}

func (h *Handlers) Register(r *router.Router) {
	r.GET("/admin/stats", h.Stats)
	r.GET("/admin/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	r.POST("/admin/backup", h.Backup)
}

type statsResponse struct {
	models.Stats
	DiskUsage      uint64 `json:"disk_usage_bytes"`
	DiskUsageHuman string `json:"disk_usage"`
	InMemory       bool   `json:"in_memory"`
}

func (h *Handlers) Stats(ctx *fasthttp.RequestCtx) {
	st, err := h.board.Stats(h.ctx)
	if err != nil {
		logger.Error("admin_stats_failed", "error", err)
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to collect stats")
		return
	}
	usage := h.db.DiskUsage()
	_ = router.WriteJSON(ctx, statsResponse{
		Stats:          st,
		DiskUsage:      usage,
		DiskUsageHuman: humanize.IBytes(usage),
		InMemory:       h.db.InMemory(),
	})
}

func (h *Handlers) Backup(ctx *fasthttp.RequestCtx) {
	if h.backup == nil {
		router.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, ErrBackupsDisabled.Error())
		return
	}
	res, err := h.backup.RunNow(h.ctx)
	if err != nil {
		logger.Error("admin_backup_failed", "error", err)
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "backup failed: "+err.Error())
		return
	}
	_ = router.WriteJSON(ctx, res)
}
