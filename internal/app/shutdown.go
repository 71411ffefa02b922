package app

import (
	"context"

	"messageboard/pkg/state/logger"
)

// Shutdown stops the server, waits for an in-flight backup and closes the
// store. ctx bounds the wait.
func (a *App) Shutdown(ctx context.Context) error {
	a.state.Store("shutting_down")
	logger.Info("shutdown_requested")

	if a.srvFast != nil {
		done := make(chan error, 1)
		go func() { done <- a.srvFast.Shutdown() }()
		select {
		case err := <-done:
			if err != nil {
				logger.Error("http_shutdown_failed", "error", err)
			}
		case <-ctx.Done():
			logger.Warn("http_shutdown_timeout")
		}
	}

	if a.cancel != nil {
		a.cancel()
	}
	if a.backupDone != nil {
		select {
		case <-a.backupDone:
		case <-ctx.Done():
			logger.Warn("backup_stop_timeout")
		}
	}
	if a.gw != nil {
		a.gw.Close()
	}

	if err := a.db.Flush(); err != nil {
		logger.Error("store_flush_failed", "error", err)
	}
	if err := a.db.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
		return err
	}
	a.state.Store("stopped")
	logger.Info("shutdown_complete")
	return nil
}
