package lifecycle

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/qrail-tms/qrailgo/internal/database"
)

// Uploader stores a voice attachment and returns its public URL. The upload
// must complete (or fail) before the record referencing the URL is
// committed; the engine never commits a pending upload.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

// VoiceNote is an in-flight voice attachment handed to the engine by a
// handler. The engine does not touch microphones; capture happens upstream.
type VoiceNote struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Service is the batch & item lifecycle engine. All multi-write operations
// run in one transaction; scan ingestion additionally holds a per-batch
// lock so concurrent scans can never compute the same scan number.
type Service struct {
	db       *database.DB
	uploader Uploader
	clock    func() time.Time

	mu         sync.Mutex
	batchLocks map[string]*sync.Mutex
}

// NewService creates the lifecycle engine. uploader may be nil when voice
// storage is not configured; operations carrying a voice note then fail
// with an external-service error instead of committing without the file.
func NewService(db *database.DB, uploader Uploader) *Service {
	return &Service{
		db:         db,
		uploader:   uploader,
		clock:      time.Now,
		batchLocks: make(map[string]*sync.Mutex),
	}
}

// SetClock overrides the time source (tests)
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

// lockBatch acquires the critical section for one batch's scan counter
func (s *Service) lockBatch(batchID string) func() {
	s.mu.Lock()
	l, ok := s.batchLocks[batchID]
	if !ok {
		l = &sync.Mutex{}
		s.batchLocks[batchID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// uploadVoiceNote pushes a voice attachment through the uploader before
// anything referencing it is written
func (s *Service) uploadVoiceNote(ctx context.Context, note *VoiceNote) (string, error) {
	if note == nil {
		return "", nil
	}
	if s.uploader == nil {
		return "", externalf("voice storage is not configured")
	}
	url, err := s.uploader.Upload(ctx, note.FileName, note.ContentType, note.Reader, note.Size)
	if err != nil {
		return "", externalf("voice note upload failed: %v", err)
	}
	return url, nil
}
