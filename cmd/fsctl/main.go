// Command fsctl holds operator tasks that are not exposed over HTTP:
// creating administrators and reconciling stored bytes with file records.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"fileshare/internal/config"
	"fileshare/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Location())
	defer logger.Sync()

	if err := newRootCmd(cfg, logger).Execute(); err != nil {
		os.Exit(1)
	}
}
