package commands

import (
	"log"
	"os"

	"github.com/droidscope/logdex/internal/config"
	"github.com/droidscope/logdex/internal/report"
)

// Version is set via ldflags at build time.
var Version = "dev"

// GlobalOptions are shared by every command that touches the cache.
type GlobalOptions struct {
	ConfigPath string
	CacheDir   string
}

// newService builds the report service from config + flag overrides.
func newService(opts GlobalOptions, logger *log.Logger) (*report.Service, config.SystemConfig, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, cfg, err
	}
	cfg.AppVersion = Version

	if opts.CacheDir != "" {
		cfg.CacheDir = opts.CacheDir
	}

	svc, err := report.NewService(cfg, logger)
	return svc, cfg, err
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "[LOGDEX] ", log.LstdFlags)
}
