package state

import "path/filepath"

type Paths struct {
	DB      string
	Store   string
	State   string
	Backups string
	Logs    string
	Tmp     string
}

func PathsFor(dbPath string) Paths {
	statePath := filepath.Join(dbPath, "state")
	return Paths{
		DB:    dbPath,
		Store: filepath.Join(dbPath, "store"),

		State:   statePath,
		Backups: filepath.Join(statePath, "backups"),
		Logs:    filepath.Join(statePath, "logs"),
		Tmp:     filepath.Join(statePath, "tmp"),
	}
}

func StorePath(dbPath string) string   { return PathsFor(dbPath).Store }
func BackupsPath(dbPath string) string { return PathsFor(dbPath).Backups }
func LogsPath(dbPath string) string    { return PathsFor(dbPath).Logs }
