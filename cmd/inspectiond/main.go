package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/blob"
	"github.com/joseph-ayodele/inspection-wizard/internal/capture"
	"github.com/joseph-ayodele/inspection-wizard/internal/classify"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/extract"
	"github.com/joseph-ayodele/inspection-wizard/internal/geo"
	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
	"github.com/joseph-ayodele/inspection-wizard/internal/inspection"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm/gemini"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm/openai"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
	"github.com/joseph-ayodele/inspection-wizard/internal/ocr"
	repo "github.com/joseph-ayodele/inspection-wizard/internal/repository"
	"github.com/joseph-ayodele/inspection-wizard/internal/snapshot"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
	"github.com/joseph-ayodele/inspection-wizard/internal/wizard"
)

const persistenceService = "inspection.persistence"

func main() {
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	snapshots, err := snapshot.Open(ctx, cfg.Snapshot)
	if err != nil {
		logger.Error("failed to open snapshot store", "backend", cfg.Snapshot.Backend, "error", err)
		os.Exit(1)
	}
	defer snapshots.Close()

	store := inspection.NewStore(ctx,
		inspection.WithSnapshotStore(snapshots),
		inspection.WithLogger(logger),
		inspection.WithMetrics(m),
	)

	// Persistence: Postgres when configured, otherwise an in-process store.
	var (
		persister submission.Persister = repo.NewMemoryRepository()
		db        *repo.DB
	)
	if cfg.Database.DSN != "" {
		db, err = repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer repo.Close(db, logger)
		if err := repo.HealthCheck(ctx, db.Pool, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		if cfg.Database.AutoMigrate {
			if err := repo.Migrate(ctx, db, logger); err != nil {
				logger.Error("failed to migrate schema", "error", err)
				os.Exit(1)
			}
		}
		persister = repo.NewSubmissionRepository(db, logger)
	} else {
		logger.Warn("DB_URL not set, submissions are kept in memory")
	}

	weights, err := submission.LoadWeights(cfg.Scoring.WeightsFile)
	if err != nil {
		logger.Error("failed to load scoring weights", "path", cfg.Scoring.WeightsFile, "error", err)
		os.Exit(1)
	}
	subOpts := []submission.SubmitterOption{submission.WithLogger(logger), submission.WithMetrics(m)}
	if cfg.Storage.S3Bucket != "" {
		sink, err := blob.NewS3Sink(ctx, cfg.Storage.S3Region, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, logger)
		if err != nil {
			logger.Error("failed to configure s3 image sink", "error", err)
			os.Exit(1)
		}
		subOpts = append(subOpts, submission.WithImageSink(sink))
	}
	submitter := submission.NewSubmitter(submission.NewAssembler(weights, nil), persister, subOpts...)

	// Recognition collaborators
	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
		OEM:         cfg.OCR.OEM,
	}, logger)

	var (
		remote      llm.IdentityExtractor
		damage      llm.DamageAnalyzer
		damageModel string
		analyzer    classify.Analyzer
	)
	switch cfg.LLM.Provider {
	case "openai":
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		remote, damage, damageModel = client, client, client.Model()
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, cfg.LLM.Temperature, logger)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		remote, damage, damageModel, analyzer = client, client, client.Model(), client
	}

	extractOpts := []extract.Option{
		extract.WithLogger(logger),
		extract.WithMetrics(m),
		extract.WithRemoteTimeout(cfg.LLM.Timeout),
	}
	if remote != nil {
		extractOpts = append(extractOpts, extract.WithRemote(remote))
	}

	positions := &geo.ReportedSource{}
	var geocoder geo.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := geo.NewGoogleGeocoder(cfg.Maps.APIKey, "es")
		if err != nil {
			logger.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		geocoder = g
	}

	sessOpts := []wizard.Option{
		wizard.WithPreparer(imageprep.NewService(imageprep.Options{
			MaxWidth:  uint(cfg.Capture.MaxWidth),
			MaxHeight: uint(cfg.Capture.MaxHeight),
			Quality:   cfg.Capture.Quality,
		}, logger)),
		wizard.WithClassifier(classify.New(analyzer, logger, m)),
		wizard.WithExtractor(extract.New(engine, extractOpts...)),
		wizard.WithLocator(geo.NewLocator(positions, geocoder, cfg.Maps.LocateTimeout, cfg.Maps.GeocodeTimeout, logger)),
		wizard.WithSubmitter(submitter),
		wizard.WithLogger(logger),
		wizard.WithMetrics(m),
	}
	if damage != nil {
		sessOpts = append(sessOpts, wizard.WithDamageAnalyzer(damage, damageModel, cfg.LLM.Timeout))
	}
	session := wizard.NewSession(store, sessOpts...)
	stopProgress := wizard.TrackProgress(store, m, logger)
	defer stopProgress()

	// Scene captures that carry device coordinates locate the scene when it has none yet.
	proc := capture.ProcessorFunc(func(ctx context.Context, job capture.Job) error {
		if err := session.Process(ctx, job); err != nil {
			return err
		}
		c := job.Capture
		if job.Target.Slot == constants.SlotScene && c.Latitude != nil && c.Longitude != nil &&
			!store.Inspection().Scene.HasCoordinates() {
			positions.Report(geo.Position{Latitude: *c.Latitude, Longitude: *c.Longitude})
			session.LocateScene(ctx)
		}
		return nil
	})

	queue := capture.NewQueue(proc, logger,
		capture.WithWorkers(cfg.Capture.Workers),
		capture.WithQueueSize(cfg.Capture.QueueSize),
		capture.WithJobTimeout(cfg.Capture.JobTimeout),
		capture.WithMetrics(m),
	)

	if cfg.Capture.InboxDir != "" {
		paths, watchErrs, err := capture.Watch(ctx, capture.WatchConfig{
			Inbox:       cfg.Capture.InboxDir,
			InitialScan: true,
			Debounce:    cfg.Capture.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to watch capture inbox", "dir", cfg.Capture.InboxDir, "error", err)
			os.Exit(1)
		}
		go capture.Pump(ctx, paths, queue, logger)
		go func() {
			for err := range watchErrs {
				logger.Error("capture inbox watcher error", "error", err)
			}
		}()
		logger.Info("watching capture inbox", "dir", cfg.Capture.InboxDir)
	}

	// gRPC health + reflection
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(persistenceService, grpc_health_v1.HealthCheckResponse_SERVING)
	go watchHealth(ctx, healthServer, db, snapshots, logger)

	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	doc := store.Inspection()
	logger.Info("inspectiond listening",
		"grpc_addr", addr,
		"metrics_addr", cfg.Server.MetricsAddr,
		"inspection_id", doc.ID,
		"status", doc.Status,
		"step", constants.Step(store.Step()))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// watchHealth flips the persistence service status when the database or the snapshot backend stops answering.
func watchHealth(ctx context.Context, hs *health.Server, db *repo.DB, snapshots snapshot.Store, logger *slog.Logger) {
	type pinger interface {
		Health(ctx context.Context) error
	}
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		status := grpc_health_v1.HealthCheckResponse_SERVING
		if db != nil {
			if err := repo.HealthCheck(ctx, db.Pool, 3*time.Second, logger); err != nil {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
		}
		if p, ok := snapshots.(pinger); ok {
			if err := p.Health(ctx); err != nil {
				logger.Warn("snapshot backend unhealthy", "error", err)
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus(persistenceService, status)
	}
}
