package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/rtlforge/internal/catalog"
	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/docmodel"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	set     *docmodel.Set
	catalog *catalog.Catalog
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and a
// populated template catalog.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	set, err := loadDocuments(ctx, config.DocPaths)
	if err != nil {
		// A failure to load documents is a fatal startup error.
		panic(fmt.Errorf("failed to load design documents: %w", err))
	}
	logger.Debug("Documents translated into unified model.")

	cat := catalog.New()
	if err := cat.AddAll(set.Descriptors); err != nil {
		// Conflicting or malformed templates are a fatal startup error.
		panic(fmt.Errorf("failed to build template catalog: %w", err))
	}
	logger.Debug("Template catalog populated.",
		"families", len(cat.Families()),
		"templates", cat.Len())

	return &App{
		outW:    outW,
		logger:  logger,
		config:  config,
		set:     set,
		catalog: cat,
	}
}

// Catalog returns the application's template catalog. This is primarily for
// testing.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}
