package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veronicavalera/gritgirls/internal/adapter/api"
	"github.com/veronicavalera/gritgirls/internal/adapter/storage/rest"
	"github.com/veronicavalera/gritgirls/internal/adapter/storage/s3"
	"github.com/veronicavalera/gritgirls/internal/config"
	listingdomain "github.com/veronicavalera/gritgirls/internal/listing/domain"
	photodomain "github.com/veronicavalera/gritgirls/internal/photo/domain"
	photousecase "github.com/veronicavalera/gritgirls/internal/photo/usecase"
	"github.com/veronicavalera/gritgirls/internal/photo/validator"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
	"github.com/veronicavalera/gritgirls/internal/platform/metrics"
	"github.com/veronicavalera/gritgirls/internal/platform/tracer"
	"github.com/veronicavalera/gritgirls/internal/session"
)

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.MetricsManager
	http     *http.Client
	api      *api.Client
	sessions *session.Store

	shutdownTracer tracer.Shutdown
	managers       []*photousecase.Manager
}

func newRuntime(ctx context.Context, opts *RootOptions) (*runtime, error) {
	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = append(envFiles, opts.EnvFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	logCfg := logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogFile}
	log, err := logger.New(logCfg.Verbose(opts.Verbose))
	if err != nil {
		return nil, err
	}

	shutdown, err := tracer.InitTracer(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetricsManager("photoctl")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	sessions, err := session.NewStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:            cfg,
		log:            log,
		metrics:        m,
		http:           httpClient,
		api:            api.NewClient(cfg.APIBase, httpClient, log, m),
		sessions:       sessions,
		shutdownTracer: shutdown,
	}, nil
}

// photoStore picks the storage backend from STORAGE_BACKEND.
func (rt *runtime) photoStore(ctx context.Context) (photodomain.PhotoStore, error) {
	switch rt.cfg.StorageBackend {
	case config.BackendS3:
		store, err := s3.NewS3Storage(ctx, rt.cfg.MinIOEndpoint, rt.cfg.MinIOAccessKey, rt.cfg.MinIOSecretKey,
			rt.cfg.MinIOBucket, rt.cfg.MinIOUseSSL, rt.log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return rest.NewClient(rt.cfg.APIBase, rt.http, rt.log, rt.metrics), nil
	}
}

// newManager starts a photo session. Close waits for its background deletes.
func (rt *runtime) newManager(ctx context.Context) (*photousecase.Manager, error) {
	store, err := rt.photoStore(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "photo storage unavailable", err)
	}
	mgr := photousecase.NewManager(store, validator.New(rt.cfg.MaxMB), photousecase.ManagerConfig{
		MaxPhotos:     rt.cfg.MaxPhotos,
		DeleteTimeout: rt.cfg.DeleteTimeout,
	}, rt.log, rt.metrics)
	rt.managers = append(rt.managers, mgr)
	return mgr, nil
}

// token reads the saved session once. Tokens that decode as JWTs are
// checked for expiry before any request is made.
func (rt *runtime) token() (string, error) {
	sess, err := rt.sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return "", listingdomain.ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	if claims, err := session.ParseClaims(sess.Token); err == nil && claims.Expired(time.Now()) {
		return "", fmt.Errorf("session for %s expired: %w", sess.UserEmail, listingdomain.ErrNotLoggedIn)
	}
	return sess.Token, nil
}

// Close lets background deletes finish, then flushes metrics and traces.
func (rt *runtime) Close(ctx context.Context) error {
	for _, mgr := range rt.managers {
		mgr.Wait()
	}

	var errs []error
	if err := rt.metrics.WriteTextfile(rt.cfg.MetricsFile); err != nil {
		errs = append(errs, err)
	}
	if err := rt.shutdownTracer(ctx); err != nil {
		rt.log.Warn("tracer shutdown failed", zap.Error(err))
	}
	_ = rt.log.Sync()
	return errors.Join(errs...)
}
