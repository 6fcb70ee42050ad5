package server

import (
	"context"
	"fmt"

	"mcp-tool-service/pkg/config"
	"mcp-tool-service/pkg/monitor"
)

// ReloadFunc rebuilds the configuration from all of its sources
type ReloadFunc func() (*config.Config, error)

// WatchConfig watches the configuration file and re-applies log.level each
// time it changes, until ctx is cancelled. Nothing else is reloaded: the
// tool registry and transport stay as they were at startup.
func (s *MCPServer) WatchConfig(ctx context.Context, reload ReloadFunc) error {
	if s.config.Path == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	fileMonitor, err := monitor.NewFileMonitor(s.config.Path, s.loggingManager.GetLogger("monitor"))
	if err != nil {
		return err
	}

	s.logger.WithContext("config_path", fileMonitor.Path()).Info("Watching configuration file")

	return fileMonitor.Run(ctx, func(event monitor.FileEvent) {
		s.onConfigChange(event, reload)
	})
}

func (s *MCPServer) onConfigChange(event monitor.FileEvent, reload ReloadFunc) {
	if event.Type == "delete" {
		s.logger.WithContext("config_path", event.Path).Warn("Configuration file removed, keeping current settings")
		return
	}

	cfg, err := reload()
	if err != nil {
		s.loggingManager.LogConfigReload(event.Path, nil, err)
		return
	}

	s.loggingManager.LogConfigWarnings(event.Path, cfg.Warnings)

	previous := s.loggingManager.GetLogLevel()
	s.loggingManager.SetLogLevel(cfg.Log.Level)

	s.loggingManager.LogConfigReload(event.Path, map[string]interface{}{
		"previous_log_level": previous.String(),
		"log_level":          s.loggingManager.GetLogLevel().String(),
	}, nil)
}
