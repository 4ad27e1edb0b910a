// Package app assembles the prediction service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/deliveryeta/api/deliveries"
	"github.com/kilianp07/deliveryeta/api/health"
	apiprediction "github.com/kilianp07/deliveryeta/api/prediction"
	apilog "github.com/kilianp07/deliveryeta/api/predictionlog"
	"github.com/kilianp07/deliveryeta/auth"
	"github.com/kilianp07/deliveryeta/config"
	"github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/events"
	coremetrics "github.com/kilianp07/deliveryeta/core/metrics"
	coremon "github.com/kilianp07/deliveryeta/core/monitoring"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/core/service"
	"github.com/kilianp07/deliveryeta/infra/artifact"
	infradelivery "github.com/kilianp07/deliveryeta/infra/delivery"
	infraevents "github.com/kilianp07/deliveryeta/infra/events"
	"github.com/kilianp07/deliveryeta/infra/logger"
	"github.com/kilianp07/deliveryeta/infra/metrics"
	inframon "github.com/kilianp07/deliveryeta/infra/monitoring"
	"github.com/kilianp07/deliveryeta/internal/eventbus"
)

// Service owns every long-lived component of the server.
type Service struct {
	cfg *config.Config
	log logger.Logger

	artifacts *artifact.Loaded
	store     predictionlog.Store
	async     *predictionlog.AsyncWriter
	repo      delivery.Repository
	predictor *service.Service

	predBus *eventbus.TypedBus[events.PredictionEvent]
	logBus  *eventbus.TypedBus[events.LogWriteEvent]
	sink    coremetrics.MetricsSink
	brokers []infraevents.Sink

	handler http.Handler
}

// LoadArtifacts fetches and loads the model bundle named in cfg.
func LoadArtifacts(ctx context.Context, cfg config.ArtifactsConfig, log logger.Logger) (*artifact.Loaded, error) {
	opts := []artifact.Option{artifact.WithRegion(cfg.S3Region), artifact.WithLogger(log)}
	if cfg.Auth.Enabled() {
		opts = append(opts, artifact.WithHTTPClient(auth.NewClientCred(ctx, cfg.Auth, nil).Client(ctx)))
	}
	f := artifact.NewFetcher(cfg.CacheDir, opts...)
	return artifact.Load(ctx, f, cfg.Manifest, artifact.LoadOptions{
		ONNXLibrary: cfg.ONNXLibrary,
		ONNXThreads: cfg.ONNXThreads,
	})
}

// New creates a Service from the configuration. Resources acquired before a
// failure are released.
func New(ctx context.Context, cfg *config.Config) (svc *Service, err error) {
	logg := logger.New("service")
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s := &Service{
		cfg:     cfg,
		log:     logg,
		predBus: eventbus.NewTyped[events.PredictionEvent](),
		logBus:  eventbus.NewTyped[events.LogWriteEvent](),
	}
	defer func() {
		if err != nil {
			if cerr := s.Close(); cerr != nil {
				logg.Errorf("cleanup: %v", cerr)
			}
			svc = nil
		}
	}()

	if s.artifacts, err = LoadArtifacts(ctx, cfg.Artifacts, logg); err != nil {
		return nil, fmt.Errorf("artifacts: %w", err)
	}
	logg.Infof("loaded model %s (%s)", s.artifacts.Manifest.Version, s.artifacts.Manifest.Format)

	if s.store, err = predictionlog.NewStore(cfg.PredictionLog.Store); err != nil {
		return nil, fmt.Errorf("prediction log: %w", err)
	}
	if s.repo, err = infradelivery.Open(cfg.Deliveries.Store); err != nil {
		return nil, fmt.Errorf("deliveries: %w", err)
	}
	if cfg.Deliveries.Indexed {
		if err = s.repo.EnsureTrafficIndex(ctx); err != nil {
			return nil, fmt.Errorf("traffic index: %w", err)
		}
	}
	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if s.brokers, err = infraevents.NewSinks(cfg.Events.Sinks); err != nil {
		return nil, err
	}

	var appender predictionlog.Appender = s.store
	opts := []service.Option{
		service.WithLogger(logger.New("predict")),
		service.WithPredictionEvents(s.predBus),
		service.WithLogWriteEvents(s.logBus),
	}
	if a := cfg.PredictionLog.Async; a.Enabled {
		aopts := []predictionlog.AsyncOption{
			predictionlog.WithBufferSize(a.BufferSize),
			predictionlog.WithEnqueueTimeout(a.EnqueueTimeout),
			predictionlog.WithDrainTimeout(a.DrainTimeout),
			predictionlog.WithResultFunc(func(e predictionlog.Entry, werr error) {
				if werr != nil {
					logg.Errorw("async prediction log write failed", map[string]any{"entry_id": e.ID, "error": werr.Error()})
					coremon.CaptureException(werr, map[string]string{"component": "predictionlog"})
				}
				s.logBus.Publish(events.LogWriteEvent{EntryID: e.ID, Err: werr, Time: time.Now()})
			}),
		}
		if a.DropOnFull {
			aopts = append(aopts, predictionlog.WithDropOnFull())
		}
		s.async = predictionlog.NewAsyncWriter(s.store, aopts...)
		appender = s.async
		opts = append(opts, service.WithAsyncAppender())
	}
	if s.predictor, err = service.New(s.artifacts.Artifacts, appender, opts...); err != nil {
		return nil, err
	}

	s.handler = s.routes()
	return s, nil
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/predict", apiprediction.NewHandler(s.predictor, logger.New("api")))
	mux.Handle("/api/predictions/logs", apilog.NewLogHandler(s.store, s.cfg.Server.LogsToken))
	mux.Handle("/healthz", health.NewHandler(s.predictor.Version(), s.healthChecks()))
	deliveries.NewHandler(s.repo, delivery.NewGenerator(uint64(time.Now().UnixNano())), logger.New("deliveries")).Register(mux)
	if s.cfg.Metrics.PrometheusAddr == "" {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Service) healthChecks() map[string]health.Check {
	checks := map[string]health.Check{}
	if p, ok := s.store.(pinger); ok {
		checks["prediction_log"] = p.Ping
	}
	return checks
}

// Handler returns the HTTP routes.
func (s *Service) Handler() http.Handler { return s.handler }

// Run serves HTTP and feeds metrics and brokers until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := metrics.Collector{
		Predictions: s.predBus,
		LogWrites:   s.logBus,
		Sink:        s.sink,
		Logger:      logger.New("metrics"),
	}
	if s.async != nil {
		collector.QueueDepth = s.async.Len
	}
	waitCollector := collector.Start(ctx)
	forwarded := infraevents.Forwarder{
		Bus:           s.predBus,
		Sinks:         s.brokers,
		Topic:         s.cfg.Events.Topic,
		IncludeErrors: s.cfg.Events.IncludeErrors,
		Logger:        logger.New("events"),
	}.Start(ctx)

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		defer coremon.Recover()
		s.log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	cancel()
	waitCollector()
	<-forwarded
	return runErr
}

// Close drains the async writer and releases every resource.
func (s *Service) Close() error {
	var errs []error
	if s.async != nil {
		errs = append(errs, s.async.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	for _, b := range s.brokers {
		errs = append(errs, b.Close())
	}
	if s.artifacts != nil {
		errs = append(errs, s.artifacts.Close())
	}
	s.predBus.Close()
	s.logBus.Close()
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
