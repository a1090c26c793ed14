package config

import (
	"pdf-view-engine/internal/domain"
	"pdf-view-engine/internal/infra/fitz"
	"pdf-view-engine/internal/viewer"
	"pdf-view-engine/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config   *AppConfig
	Logger   domain.Logger
	Opener   domain.DocumentOpener
	Sessions *viewer.Manager
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appLogger := logger.NewLogger(cfg.GetLogLevel())
	opener := fitz.NewOpener(nil, appLogger)
	sessions := viewer.NewManager(opener, cfg, appLogger)

	return &Container{
		Config:   cfg,
		Logger:   appLogger,
		Opener:   opener,
		Sessions: sessions,
	}, nil
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() *AppConfig {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSessions returns the viewer session manager
func (c *Container) GetSessions() *viewer.Manager {
	return c.Sessions
}
