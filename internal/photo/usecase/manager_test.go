package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veronicavalera/gritgirls/internal/adapter/localfile"
	"github.com/veronicavalera/gritgirls/internal/photo/domain"
	"github.com/veronicavalera/gritgirls/internal/photo/validator"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
	"github.com/veronicavalera/gritgirls/internal/platform/metrics"
)

const mb = 1024 * 1024

var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde,
}

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Upload(ctx context.Context, file domain.LocalFile, token string) (domain.UploadResult, error) {
	args := m.Called(ctx, file.Name, token)
	return args.Get(0).(domain.UploadResult), args.Error(1)
}

func (m *MockPhotoStore) Delete(ctx context.Context, url string, token string) error {
	args := m.Called(ctx, url, token)
	return args.Error(0)
}

func image(name string, size int64) domain.LocalFile {
	return domain.LocalFile{
		Name:      name,
		SizeBytes: size,
		MimeType:  "image/jpeg",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("jpeg bytes")), nil
		},
	}
}

func newTestManager(t *testing.T, maxPhotos int) (*Manager, *MockPhotoStore, *metrics.MetricsManager) {
	t.Helper()
	store := new(MockPhotoStore)
	m := metrics.NewMetricsManager("test")
	mgr := NewManager(store, validator.New(5), ManagerConfig{MaxPhotos: maxPhotos}, logger.Nop(), m)
	return mgr, store, m
}

func names(slots []domain.PhotoSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		if s.IsPersisted() {
			out[i] = s.URL
		} else {
			out[i] = s.File.Name
		}
	}
	return out
}

func TestManager_AddFilesEndToEnd(t *testing.T) {
	mgr, _, m := newTestManager(t, 3)
	mgr.Seed(nil)

	notice := mgr.AddFiles([]domain.LocalFile{
		image("fileA", 2*mb),
		image("fileB", 6*mb),
		image("fileC", 1*mb),
		image("fileD", 1*mb),
	})

	slots := mgr.Slots()
	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.True(t, s.IsPending())
	}
	assert.Equal(t, []string{"fileA", "fileC", "fileD"}, names(slots))
	assert.Contains(t, notice, "fileB")
	assert.Equal(t, notice, mgr.Notice())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoRejectionTotal.WithLabelValues("oversized")))
}

func TestManager_AddFilesRoomCountsPending(t *testing.T) {
	mgr, _, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg"})

	mgr.AddFiles([]domain.LocalFile{image("x.jpg", mb)})
	mgr.AddFiles([]domain.LocalFile{image("y.jpg", mb), image("z.jpg", mb)})

	assert.Equal(t, []string{"/api/uploads/a.jpg", "x.jpg", "y.jpg"}, names(mgr.Slots()))
	assert.Empty(t, mgr.Notice(), "overflow beyond room is silent")
}

func TestManager_NoticePersistsUntilCleared(t *testing.T) {
	mgr, _, _ := newTestManager(t, 3)

	mgr.AddFiles([]domain.LocalFile{image("huge.jpg", 9*mb), {Name: "notes.txt", SizeBytes: 10, MimeType: "text/plain"}})
	notice := mgr.Notice()
	assert.Contains(t, notice, "huge.jpg")
	assert.Contains(t, notice, "notes.txt")

	mgr.AddFiles([]domain.LocalFile{image("ok.jpg", mb)})
	assert.Equal(t, notice, mgr.Notice())

	mgr.ClearNotice()
	assert.Empty(t, mgr.Notice())
	assert.Empty(t, mgr.AddFiles([]domain.LocalFile{image("ok2.jpg", mb)}))
}

func TestManager_NeverExceedsMaxPhotos(t *testing.T) {
	mgr, _, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/1", "/2", "/3", "/4", "/5"})
	assert.Equal(t, 3, mgr.Len())

	mgr.AddFiles([]domain.LocalFile{image("a", mb), image("b", mb)})
	assert.Equal(t, 3, mgr.Len())

	mgr.RemoveAt(context.Background(), 5, "tok")
	mgr.Seed(nil)
	for i := 0; i < 5; i++ {
		mgr.AddFiles([]domain.LocalFile{image("p", mb)})
		assert.LessOrEqual(t, mgr.Len(), 3)
	}
}

func TestManager_FlushPreservesOrder(t *testing.T) {
	mgr, store, _ := newTestManager(t, 4)
	mgr.state = domain.AttachmentState{MaxPhotos: 4, Slots: []domain.PhotoSlot{
		domain.Persisted("a"),
		domain.Pending(image("f1", mb)),
		domain.Persisted("b"),
		domain.Pending(image("f2", mb)),
	}}
	store.On("Upload", mock.Anything, "f1", "tok").Return(domain.UploadResult{URL: "u1"}, nil).Once()
	store.On("Upload", mock.Anything, "f2", "tok").Return(domain.UploadResult{URL: "u2"}, nil).Once()

	urls, err := mgr.Flush(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "u1", "b", "u2"}, urls)
	store.AssertExpectations(t)
}

func TestManager_FlushStopsAtCap(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.state = domain.AttachmentState{MaxPhotos: 3, Slots: []domain.PhotoSlot{
		domain.Persisted("a"),
		domain.Persisted("b"),
		domain.Persisted("c"),
		domain.Pending(image("f1", mb)),
	}}

	urls, err := mgr.Flush(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, urls)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_FlushStopsMidwayWhenCapReached(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.state = domain.AttachmentState{MaxPhotos: 3, Slots: []domain.PhotoSlot{
		domain.Persisted("a"),
		domain.Pending(image("f1", mb)),
		domain.Persisted("b"),
		domain.Pending(image("f2", mb)),
	}}
	store.On("Upload", mock.Anything, "f1", "tok").Return(domain.UploadResult{URL: "u1"}, nil).Once()

	urls, err := mgr.Flush(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "u1", "b"}, urls)
	store.AssertNumberOfCalls(t, "Upload", 1)
}

func TestManager_FlushPartialFailureKeepsProgress(t *testing.T) {
	mgr, store, m := newTestManager(t, 3)
	mgr.AddFiles([]domain.LocalFile{image("f1", mb), image("f2", mb)})
	store.On("Upload", mock.Anything, "f1", "tok").Return(domain.UploadResult{URL: "u1"}, nil).Once()
	store.On("Upload", mock.Anything, "f2", "tok").
		Return(domain.UploadResult{}, &domain.UploadError{StatusCode: 400, Message: "Only jpg, jpeg, png, webp allowed"}).Once()

	urls, err := mgr.Flush(context.Background(), "tok")
	require.Error(t, err)
	assert.Nil(t, urls)
	assert.ErrorIs(t, err, domain.ErrFlushFailed)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Contains(t, err.Error(), "Only jpg, jpeg, png, webp allowed")

	slots := mgr.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, domain.Persisted("u1"), slots[0])
	assert.True(t, slots[1].IsPending())
	assert.Equal(t, "f2", slots[1].File.Name)

	// The retry only uploads what is still pending.
	store.On("Upload", mock.Anything, "f2", "tok").Return(domain.UploadResult{URL: "u2"}, nil).Once()
	urls, err = mgr.Flush(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, urls)
	store.AssertNumberOfCalls(t, "Upload", 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoUploadsTotal.WithLabelValues("failed")))
}

func TestManager_FlushWrapsPlainStoreErrors(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.AddFiles([]domain.LocalFile{image("f1", mb)})
	store.On("Upload", mock.Anything, "f1", "tok").Return(domain.UploadResult{}, errors.New("connection refused")).Once()

	_, err := mgr.Flush(context.Background(), "tok")
	var upErr *domain.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 0, upErr.StatusCode)
	assert.Contains(t, upErr.Message, "connection refused")
}

func TestManager_FlushRevalidatesBeforeUploading(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.state = domain.AttachmentState{MaxPhotos: 3, Slots: []domain.PhotoSlot{
		domain.Pending(image("ok.jpg", mb)),
		domain.Pending(domain.LocalFile{Name: "stale.gif", SizeBytes: 7 * mb, MimeType: "image/gif"}),
	}}

	_, err := mgr.Flush(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFlushFailed)
	assert.ErrorIs(t, err, domain.ErrValidationRejected)

	var flushErr *domain.FlushError
	require.ErrorAs(t, err, &flushErr)
	assert.Equal(t, 1, flushErr.Index)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_FlushRereadsFileBeforeUploading(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)

	grown := image("front.jpg", mb)
	size := int64(mb)
	grown.Stat = func() (int64, string, error) { return size, "image/jpeg", nil }

	mgr.AddFiles([]domain.LocalFile{image("side.jpg", mb), grown})
	require.Equal(t, 2, mgr.Len())
	size = 7 * mb

	_, err := mgr.Flush(context.Background(), "tok")
	var rej *domain.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, domain.ReasonOversized, rej.Reason)
	assert.Equal(t, "front.jpg", rej.Name)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_FlushFailsWhenFileVanished(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)

	gone := image("gone.jpg", mb)
	gone.Stat = func() (int64, string, error) { return 0, "", errors.New("stat gone.jpg: no such file or directory") }
	mgr.AddFiles([]domain.LocalFile{gone})

	_, err := mgr.Flush(context.Background(), "tok")
	var flushErr *domain.FlushError
	require.ErrorAs(t, err, &flushErr)
	assert.Equal(t, 0, flushErr.Index)
	assert.Equal(t, 1, mgr.Len())
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_FlushRejectsFileGrownOnDisk(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)

	path := filepath.Join(t.TempDir(), "front.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))
	f, err := localfile.Load(path)
	require.NoError(t, err)

	mgr.AddFiles([]domain.LocalFile{f})
	require.Equal(t, 1, mgr.Len())

	grown := append(append([]byte{}, pngHeader...), make([]byte, 7*mb)...)
	require.NoError(t, os.WriteFile(path, grown, 0o600))

	_, err = mgr.Flush(context.Background(), "tok")
	require.ErrorIs(t, err, domain.ErrFlushFailed)
	assert.ErrorIs(t, err, domain.ErrValidationRejected)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_FlushWithNothingPending(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg"})

	urls, err := mgr.Flush(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/uploads/a.jpg"}, urls)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_RemovePersistedIsUnconditional(t *testing.T) {
	mgr, store, m := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg", "/api/uploads/b.jpg"})
	store.On("Delete", mock.Anything, "/api/uploads/a.jpg", "tok").Return(errors.New("500 Could not delete")).Once()

	ok := mgr.RemoveAt(context.Background(), 0, "tok")
	mgr.Wait()

	assert.True(t, ok)
	assert.Equal(t, []string{"/api/uploads/b.jpg"}, names(mgr.Slots()))
	store.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoDeletesTotal.WithLabelValues("ignored")))
}

func TestManager_RemovePersistedSurvivesCancelledContext(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg"})
	store.On("Delete", mock.Anything, "/api/uploads/a.jpg", "tok").Return(nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		assert.NoError(t, ctx.Err())
	}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mgr.RemoveAt(ctx, 0, "tok")
	mgr.Wait()

	assert.Zero(t, mgr.Len())
	store.AssertExpectations(t)
}

func TestManager_RemovePendingMakesNoNetworkCall(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg"})
	mgr.AddFiles([]domain.LocalFile{image("x.jpg", mb)})

	ok := mgr.RemoveAt(context.Background(), 1, "tok")
	mgr.Wait()

	assert.True(t, ok)
	assert.Equal(t, []string{"/api/uploads/a.jpg"}, names(mgr.Slots()))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_RemoveOutOfBoundsIsNoop(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg"})

	assert.False(t, mgr.RemoveAt(context.Background(), 3, "tok"))
	assert.False(t, mgr.RemoveAt(context.Background(), -1, "tok"))
	assert.Equal(t, 1, mgr.Len())
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_Clear(t *testing.T) {
	mgr, store, _ := newTestManager(t, 3)
	mgr.Seed([]string{"/api/uploads/a.jpg", "/api/uploads/b.jpg"})
	mgr.AddFiles([]domain.LocalFile{image("x.jpg", mb)})
	store.On("Delete", mock.Anything, mock.Anything, "tok").Return(nil).Twice()

	mgr.Clear(context.Background(), "tok")
	mgr.Wait()

	assert.Zero(t, mgr.Len())
	store.AssertNumberOfCalls(t, "Delete", 2)
}
