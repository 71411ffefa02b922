package banner

import (
	"fmt"
	"io"

	"messageboard/pkg/config"
)

const banner = `
 __  __                                 ____                      _
|  \/  | ___  ___ ___  __ _  __ _  ___| __ )  ___   __ _ _ __ __| |
| |\/| |/ _ \/ __/ __|/ _' |/ _' |/ _ \  _ \ / _ \ / _' | '__/ _' |
| |  | |  __/\__ \__ \ (_| | (_| |  __/ |_) | (_) | (_| | | | (_| |
|_|  |_|\___||___/___/\__,_|\__, |\___|____/ \___/ \__,_|_|  \__,_|
                            |___/
`

// PrintWithEff prints the banner and a startup summary of the effective config.
func PrintWithEff(w io.Writer, eff config.EffectiveConfigResult, version string) {
	cfg := eff.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	addr := eff.Addr
	if addr == "" {
		addr = cfg.Addr()
	}

	fmt.Fprint(w, banner)
	fmt.Fprintln(w, "== Config =====================================================")
	fmt.Fprintf(w, "Listen:     %s\n", addr)
	fmt.Fprintf(w, "DB Path:    %s\n", eff.DBPath)
	fmt.Fprintf(w, "Storage:    %s (sync=%t)\n", cfg.Storage.Mode, cfg.SyncWrites())
	fmt.Fprintf(w, "Char limit: %d\n", cfg.Board.CharLimit)
	fmt.Fprintf(w, "Max batch:  %d\n", cfg.Board.MaxBatch)
	if version != "" {
		fmt.Fprintf(w, "Version:    %s\n", version)
	}
	fmt.Fprintf(w, "Config:     %s\n", eff.Source())

	fmt.Fprintln(w, "\n== Production? =================================================")
	if n := len(cfg.Server.APIKeys.Signing); n > 0 {
		fmt.Fprintf(w, "- Signing keys: OK (%d)\n", n)
	} else {
		fmt.Fprintln(w, "- Signing keys: MISSING (identity header is trusted as-is)")
	}
	if n := len(cfg.Server.APIKeys.Admin); n > 0 {
		fmt.Fprintf(w, "- Admin API keys: OK (%d)\n", n)
	} else {
		fmt.Fprintln(w, "- Admin API keys: MISSING (admin routes are open)")
	}
	if cfg.Storage.Mode == config.StorageMemory {
		fmt.Fprintln(w, "- Storage: in-memory, data is lost on exit")
	}
	if cfg.Backup.Enabled {
		fmt.Fprintf(w, "- Backups: enabled (cron=%s keep=%d)\n", cfg.Backup.Cron, cfg.Backup.Keep)
	} else {
		fmt.Fprintln(w, "- Backups: disabled")
	}
	fmt.Fprintln(w)
}
