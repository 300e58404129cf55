package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/ybalkhateeb/cntxt-delivery-analysis/analysis"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/config"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/export"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/format"
	internal "github.com/ybalkhateeb/cntxt-delivery-analysis/internal/mounts"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/opportunity"
	"github.com/ybalkhateeb/cntxt-delivery-analysis/web"
)

// App is the central orchestrator for the application's business logic,
// coordinating configuration, the opportunity dataset, the analysis engine
// and the outputs built on them.
type App struct {
	log *log.Logger
}

// New creates and returns a new App instance.
func New() *App {
	return &App{
		log: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "delivery-analysis",
		}),
	}
}

// setup loads the configuration and builds the engine and formatter shared
// by the serve and export commands.
func (a *App) setup(cfgPath string) (*config.Config, *analysis.Engine, *format.Formatter, error) {

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	var dataset []opportunity.Opportunity
	if cfg.DatasetPath != "" {
		dataset, err = opportunity.LoadFile(cfg.DatasetPath)
	} else {
		dataset, err = opportunity.Default()
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dataset error: %w", err)
	}

	return cfg, analysis.NewEngine(dataset), format.New(cfg.SARExchangeRate), nil
}

// Serve runs the dashboard web server until the context is cancelled.
func (a *App) Serve(ctx context.Context, cfgPath string) error {

	cfg, engine, formatter, err := a.setup(cfgPath)
	if err != nil {
		return err
	}

	staticFS, err := internal.NewFileMount("static", web.StaticEmbeddedFS, cfg.Web.StaticPath)
	if err != nil {
		return fmt.Errorf("static file mount error: %w", err)
	}
	templatesFS, err := internal.NewFileMount("templates", web.TemplatesEmbeddedFS, cfg.Web.TemplatesPath)
	if err != nil {
		return fmt.Errorf("templates file mount error: %w", err)
	}

	a.log.Info("dataset loaded", "records", len(engine.Dataset()))

	webApp, err := web.New(a.log, cfg, engine, formatter, staticFS, templatesFS)
	if err != nil {
		return err
	}
	return webApp.StartServer(ctx)
}

// Export writes the analysis for the given filter to an xlsx workbook at
// outPath.
func (a *App) Export(ctx context.Context, cfgPath, outPath string, keyFocusOnly bool, serviceType string) error {

	_, engine, formatter, err := a.setup(cfgPath)
	if err != nil {
		return err
	}

	if !slices.Contains(engine.ServiceTypes(), serviceType) {
		return fmt.Errorf("unknown service type %q, choose one of %v", serviceType, engine.ServiceTypes())
	}

	filter := analysis.Filter{KeyFocusOnly: keyFocusOnly, ServiceType: serviceType}
	if err := export.Save(engine, formatter, filter, outPath); err != nil {
		return err
	}

	result := engine.Evaluate(filter)
	a.log.Info("workbook written", "path", outPath, "records", len(result.Opportunities))
	return nil
}
