package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/veronicavalera/gritgirls/internal/photo/domain"
	"github.com/veronicavalera/gritgirls/internal/photo/validator"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
	"github.com/veronicavalera/gritgirls/internal/platform/metrics"
)

const (
	DefaultMaxPhotos     = 3
	DefaultDeleteTimeout = 10 * time.Second
)

type ManagerConfig struct {
	MaxPhotos     int
	DeleteTimeout time.Duration
}

// Manager owns the photo list of one listing form session.
//
// Every method takes the same lock, so calls never interleave. Flush keeps
// the lock for the whole upload sequence; AddFiles and RemoveAt issued while
// a flush runs wait for it to finish.
//
// The rejection notice outlives the AddFiles call that set it, for callers
// that keep a session open across several selections. photoctl runs one
// selection per process and takes the notice from the AddFiles return, so it
// never calls Notice or ClearNotice.
type Manager struct {
	mu     sync.Mutex
	state  domain.AttachmentState
	notice string

	store         domain.PhotoStore
	validator     *validator.Validator
	deleteTimeout time.Duration

	log     *logger.Logger
	metrics *metrics.MetricsManager
	tracer  trace.Tracer

	deletes sync.WaitGroup
}

func NewManager(store domain.PhotoStore, v *validator.Validator, cfg ManagerConfig, log *logger.Logger, m *metrics.MetricsManager) *Manager {
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = DefaultMaxPhotos
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = DefaultDeleteTimeout
	}
	return &Manager{
		state:         domain.NewAttachmentState(cfg.MaxPhotos),
		store:         store,
		validator:     v,
		deleteTimeout: cfg.DeleteTimeout,
		log:           log.Named("photos"),
		metrics:       m,
		tracer:        otel.Tracer("github.com/veronicavalera/gritgirls/internal/photo"),
	}
}

// Seed loads the photos a listing already has on the server.
func (m *Manager) Seed(urls []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = m.state.Seed(urls)
	if len(urls) > m.state.MaxPhotos {
		m.log.Warn("server returned more photos than allowed, truncating",
			zap.Int("received", len(urls)), zap.Int("max_photos", m.state.MaxPhotos))
	}
}

// AddFiles queues acceptable files as pending slots while room lasts and
// returns the current rejection notice. Accepted files beyond the room are
// dropped without a notice.
func (m *Manager) AddFiles(files []domain.LocalFile) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	accepted, rejected := m.validator.Partition(files)
	next, dropped := m.state.Append(accepted)
	m.state = next

	if len(dropped) > 0 {
		m.log.Debug("no room for selected photos", zap.Int("dropped", len(dropped)), zap.Int("max_photos", m.state.MaxPhotos))
	}
	if len(rejected) > 0 {
		for _, r := range rejected {
			m.metrics.PhotoRejectionTotal.WithLabelValues(string(r.Reason)).Inc()
		}
		m.notice = m.rejectionNotice(rejected)
		m.log.Info("skipped photos", zap.String("notice", m.notice))
	}
	return m.notice
}

func (m *Manager) rejectionNotice(rejected []*domain.RejectionError) string {
	var oversized, wrongType []string
	for _, r := range rejected {
		if r.Reason == domain.ReasonOversized {
			oversized = append(oversized, r.Name)
		} else {
			wrongType = append(wrongType, r.Name)
		}
	}
	var parts []string
	if len(oversized) > 0 {
		parts = append(parts, fmt.Sprintf("Skipped oversized images (> %s): %s",
			humanize.IBytes(uint64(m.validator.MaxBytes())), strings.Join(oversized, ", ")))
	}
	if len(wrongType) > 0 {
		parts = append(parts, "Skipped non-image files: "+strings.Join(wrongType, ", "))
	}
	return strings.Join(parts, "; ")
}

// RemoveAt drops the slot at index. A persisted photo is also deleted
// remotely in the background; that delete may fail without consequence.
// It reports false, and changes nothing, for an index that is out of range.
func (m *Manager) RemoveAt(ctx context.Context, index int, token string) bool {
	m.mu.Lock()
	next, removed, ok := m.state.RemoveAt(index)
	if !ok {
		m.mu.Unlock()
		m.log.Debug("ignoring remove", zap.Int("index", index), zap.Error(domain.ErrOutOfBounds))
		return false
	}
	m.state = next
	m.mu.Unlock()

	if removed.IsPersisted() {
		m.deleteInBackground(ctx, removed.URL, token)
	}
	return true
}

// Clear removes every slot, deleting persisted photos best-effort.
func (m *Manager) Clear(ctx context.Context, token string) {
	m.mu.Lock()
	old := m.state
	m.state = domain.NewAttachmentState(old.MaxPhotos)
	m.mu.Unlock()

	for _, slot := range old.Slots {
		if slot.IsPersisted() {
			m.deleteInBackground(ctx, slot.URL, token)
		}
	}
}

func (m *Manager) deleteInBackground(ctx context.Context, url, token string) {
	// Detached from ctx cancellation; only deleteTimeout bounds it.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.deleteTimeout)
	m.deletes.Add(1)
	go func() {
		defer m.deletes.Done()
		defer cancel()

		dctx, span := m.tracer.Start(dctx, "photo.Delete", trace.WithAttributes(attribute.String("photo.url", url)))
		defer span.End()

		if err := m.store.Delete(dctx, url, token); err != nil {
			span.RecordError(err)
			m.metrics.PhotoDeletesTotal.WithLabelValues("ignored").Inc()
			m.log.Warn("remote delete failed", zap.String("url", url), zap.Error(fmt.Errorf("%w: %w", domain.ErrDeleteIgnored, err)))
			return
		}
		m.metrics.PhotoDeletesTotal.WithLabelValues("deleted").Inc()
		m.log.Debug("remote photo deleted", zap.String("url", url))
	}()
}

// Wait blocks until background deletes have finished.
func (m *Manager) Wait() {
	m.deletes.Wait()
}

// Flush uploads pending photos in list order and returns the URLs to submit.
//
// Every pending slot is re-read from its source and validated before
// anything is uploaded. Uploading stops once MaxPhotos photos are persisted;
// pending slots past that point are left out of the result. On an upload failure the slots uploaded so far
// stay persisted, so a retry only uploads what is left.
func (m *Manager) Flush(ctx context.Context, token string) (urls []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, "photo.Flush", trace.WithAttributes(
		attribute.Int("photo.pending", m.state.PendingCount()),
		attribute.Int("photo.persisted", m.state.PersistedCount()),
	))
	start := time.Now()
	defer func() {
		m.metrics.FlushDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for i, slot := range m.state.Slots {
		if !slot.IsPending() {
			continue
		}
		file, serr := slot.File.Refresh()
		if serr != nil {
			m.log.Warn("pending photo unreadable", zap.String("name", slot.File.Name), zap.Int("index", i), zap.Error(serr))
			return nil, &domain.FlushError{Index: i, Err: serr}
		}
		if verr := m.validator.Check(file); verr != nil {
			m.log.Warn("pending photo no longer valid", zap.Int("index", i), zap.Error(verr))
			return nil, &domain.FlushError{Index: i, Err: verr}
		}
		m.state.Slots[i].File = file
	}

	persisted := m.state.PersistedCount()
	for i := range m.state.Slots {
		if persisted >= m.state.MaxPhotos {
			break
		}
		slot := m.state.Slots[i]
		if !slot.IsPending() {
			continue
		}

		res, uerr := m.upload(ctx, slot.File, token)
		if uerr != nil {
			m.log.Error("photo upload failed", zap.String("name", slot.File.Name), zap.Int("index", i), zap.Error(uerr))
			return nil, &domain.FlushError{Index: i, Err: uerr}
		}
		m.state = m.state.Replace(i, res.URL)
		persisted++
	}

	if skipped := m.state.PendingCount(); skipped > 0 {
		m.log.Debug("pending photos beyond the cap were not uploaded", zap.Int("skipped", skipped))
	}
	return m.state.URLs(), nil
}

func (m *Manager) upload(ctx context.Context, f domain.LocalFile, token string) (domain.UploadResult, error) {
	ctx, span := m.tracer.Start(ctx, "photo.Upload", trace.WithAttributes(
		attribute.String("photo.name", f.Name),
		attribute.Int64("photo.size_bytes", f.SizeBytes),
	))
	defer span.End()

	res, err := m.store.Upload(ctx, f, token)
	if err != nil {
		if !errors.Is(err, domain.ErrUploadFailed) {
			err = &domain.UploadError{Message: err.Error(), Err: err}
		}
		span.RecordError(err)
		m.metrics.PhotoUploadsTotal.WithLabelValues("failed").Inc()
		return domain.UploadResult{}, err
	}
	m.metrics.PhotoUploadsTotal.WithLabelValues("success").Inc()
	m.log.Info("photo uploaded", zap.String("name", f.Name), zap.String("url", res.URL))
	return res, nil
}

// Slots returns a copy of the current slot list.
func (m *Manager) Slots() []domain.PhotoSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PhotoSlot(nil), m.state.Slots...)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Slots)
}

func (m *Manager) MaxPhotos() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.MaxPhotos
}

// Notice is the last rejection message, kept until ClearNotice.
func (m *Manager) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}

// ClearNotice dismisses the notice. Later AddFiles calls without rejections
// return "".
func (m *Manager) ClearNotice() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notice = ""
}
