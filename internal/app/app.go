// Package app assembles the intake pipeline and its sinks from configuration.
// Both the HTTP server and the workflow worker start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"

	"invoice-intake/internal/catalog"
	"invoice-intake/internal/common/cache"
	"invoice-intake/internal/common/config"
	httpclient "invoice-intake/internal/common/http"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/common/observability"
	"invoice-intake/internal/intake"
	"invoice-intake/internal/invoice"
	"invoice-intake/internal/sinks"
	"invoice-intake/internal/sinks/cloudinary"
	"invoice-intake/internal/sinks/gdrive"
	"invoice-intake/internal/sinks/gsheets"
	"invoice-intake/internal/sinks/notion"
	"invoice-intake/internal/sinks/notify"
	"invoice-intake/internal/submission"
)

// App holds the long-lived components shared by the entry points.
type App struct {
	Config        *config.Config
	Catalog       *catalog.Catalog
	Intake        *intake.Service
	Records       *notion.Creator
	Cache         *cache.RedisClient
	Observability *observability.Observability

	logger logger.Logger
}

// Build connects every configured sink. Optional sinks that are disabled stay nil.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	cat, err := catalog.Load(cfg.Intake.CatalogPath, cfg.Intake.DefaultBrand)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand catalog: %w", err)
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("OpenTelemetry exporter unavailable", map[string]interface{}{"error": err.Error()})
	}

	a := &App{Config: cfg, Catalog: cat, Observability: obs, logger: log}

	var store cache.Store
	if cfg.Redis.Address != "" {
		a.Cache = cache.NewRedis(cfg.Redis)
		if err := a.Cache.Ping(ctx); err != nil {
			log.Warn("Redis unreachable, folder and spreadsheet ids will not be cached", map[string]interface{}{
				"address": cfg.Redis.Address,
				"error":   err.Error(),
			})
		}
		store = a.Cache
	}

	client := httpclient.NewClient(config.GetDuration(cfg.Timeouts.Record), cfg.App.Name+"/"+cfg.App.Version)
	a.Records = notion.New(cfg.Notion, client.Standard(), log)

	var drive gdrive.API
	needDrive := cfg.Storage.Provider == config.ProviderDrive ||
		(cfg.Sheets.Enabled && cfg.Sheets.SpreadsheetID == "")
	var googleOpts []option.ClientOption
	if needDrive || cfg.Sheets.Enabled {
		googleOpts, err = gdrive.ClientOptions(ctx, cfg.Google, gdrive.Scopes...)
		if err != nil {
			return nil, err
		}
	}
	if needDrive {
		svc, err := gdrive.NewService(ctx, cfg.Storage.Drive.SharedDrive, googleOpts...)
		if err != nil {
			return nil, err
		}
		drive = svc
	}

	var uploader sinks.Uploader
	switch cfg.Storage.Provider {
	case config.ProviderCloudinary:
		u, err := cloudinary.New(cfg.Storage.Cloudinary, log)
		if err != nil {
			return nil, err
		}
		uploader = u
	case config.ProviderDrive:
		folders := gdrive.NewFolders(drive, cfg.Storage.Drive.FolderID, store, log)
		uploader = gdrive.NewUploader(drive, folders, cfg.Storage.Drive.PublicLinks, log)
	default:
		log.Info("Attachment uploads disabled", nil)
	}

	var sheetAppender sinks.SheetAppender
	if cfg.Sheets.Enabled {
		svc, err := gsheets.NewService(ctx, googleOpts...)
		if err != nil {
			return nil, err
		}
		opts := gsheets.Options{
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			SheetName:     cfg.Sheets.SheetName,
			RootFolderID:  cfg.Storage.Drive.FolderID,
			Cache:         store,
		}
		sheetAppender = gsheets.NewAppender(svc, drive, opts, log)
	}

	var notifier sinks.Notifier
	if cfg.Notifications.SES.Enabled || cfg.Notifications.SNS.Enabled {
		n, err := notify.New(ctx, cfg.Notifications, log)
		if err != nil {
			return nil, err
		}
		notifier = n
	}

	a.Intake = intake.NewService(intake.Dependencies{
		Normalizer:    submission.NewNormalizer(cat, submission.WithInvoiceField(cfg.Intake.InvoiceFileField)),
		Calculator:    invoice.NewCalculator(time.Now),
		Renderer:      invoice.NewRenderer(),
		Uploader:      uploader,
		Sheets:        sheetAppender,
		Records:       a.Records,
		Notifier:      notifier,
		Observability: obs,
		Logger:        log,
	}, intake.Options{
		UploadConcurrency: cfg.Intake.UploadConcurrency,
		Timeouts: intake.Timeouts{
			Upload: config.GetDuration(cfg.Timeouts.Upload),
			Sheets: config.GetDuration(cfg.Timeouts.Sheets),
			Record: config.GetDuration(cfg.Timeouts.Record),
			Notify: config.GetDuration(cfg.Timeouts.Notify),
		},
	})

	log.Info("Intake pipeline ready", map[string]interface{}{
		"storage":       cfg.Storage.Provider,
		"sheets":        cfg.Sheets.Enabled,
		"notifications": notifier != nil,
		"brands":        len(cat.Brands()),
	})
	return a, nil
}

// CheckNotion retrieves the target database and logs the outcome. A failure is not fatal.
func (a *App) CheckNotion(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	title, err := a.Records.Check(ctx)
	if err != nil {
		a.logger.Warn("Notion database not reachable", map[string]interface{}{"error": err.Error()})
		return
	}
	a.logger.Info("Notion database reachable", map[string]interface{}{"database": title})
}

// Checks lists the dependency probes served on /ready.
func (a *App) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"notion": func(ctx context.Context) error {
			_, err := a.Records.Check(ctx)
			return err
		},
	}
	if a.Cache != nil {
		checks["redis"] = a.Cache.Ping
	}
	return checks
}

func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.logger.Warn("Error closing Redis client", map[string]interface{}{"error": err.Error()})
		}
	}
	a.Observability.Shutdown()
}
