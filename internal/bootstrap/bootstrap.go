package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/giedriusgen/DocumentManagementSystem/internal/config"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/usecase"
	"github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/directory/neo4jdir"
	"github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/export/excel"
	"github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/preview/pdf"
	natsqueue "github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/queue/nats"
	"github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/repository/postgres"
	"github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/resilience"
	"github.com/giedriusgen/DocumentManagementSystem/internal/infrastructure/storage/localfs"
)

// App wires the use cases to their infrastructure. Both binaries build the
// same graph; the api serves it over HTTP, the worker consumes the queue.
type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Workflow  ports.DocumentWorkflow
	Finder    ports.DocumentFinder
	Files     ports.FileService
	Stats     ports.StatisticsService
	Processor ports.AttachmentProcessor
	Exporter  *excel.Exporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	directory, closeDirectory, err := newDirectory(ctx, cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy(), natsqueue.ClassifyError)
	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		closeDirectory()
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	docs := postgres.NewDocumentRepository(db)
	files := postgres.NewFileRepository(db)
	statsRepo := postgres.NewStatisticsRepository(db)

	resolver := usecase.NewEligibilityUseCase(directory)
	workflow := usecase.NewWorkflowUseCase(docs, storage, resolver, queue)
	finder := usecase.NewQueryUseCase(docs, resolver)
	fileService, err := usecase.NewFilesUseCase(docs, files, storage)
	if err != nil {
		queue.Close()
		closeDirectory()
		_ = db.Close()
		return nil, fmt.Errorf("init file service: %w", err)
	}
	stats := usecase.NewStatisticsUseCase(statsRepo)
	processor := usecase.NewPreviewUseCase(files, pdf.NewPreviewer(storage))

	return &App{
		Config: cfg,

		Queue:     queue,
		Workflow:  workflow,
		Finder:    finder,
		Files:     fileService,
		Stats:     stats,
		Processor: processor,
		Exporter:  excel.NewExporter(),

		closeFn: func() {
			queue.Close()
			closeDirectory()
			_ = db.Close()
		},
	}, nil
}

func newDirectory(ctx context.Context, cfg config.Config, db *sql.DB) (ports.GroupDirectory, func(), error) {
	switch cfg.DirectoryBackend {
	case "postgres", "":
		return postgres.NewDirectoryRepository(db), func() {}, nil
	case "neo4j":
		graph, err := neo4jdir.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("init neo4j directory: %w", err)
		}
		return graph, func() { _ = graph.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown directory backend %q", cfg.DirectoryBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
