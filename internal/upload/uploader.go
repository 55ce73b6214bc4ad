package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Errors
var (
	ErrCanceled   = errors.New("upload canceled")
	ErrEmptyFile  = errors.New("file is empty")
	ErrMissingURL = errors.New("no signed url for part")
)

// Backend is the remote side of a multi-part transfer.
type Backend interface {
	StartUpload(ctx context.Context, req domain.StartUploadRequest) (*domain.StartUploadResponse, error)
	PartURLs(ctx context.Context, req domain.PartURLsRequest) (*domain.PartURLsResponse, error)
	UploadPart(ctx context.Context, signedURL string, body io.Reader, size int64, contentType string) (string, error)
	CompleteUpload(ctx context.Context, req domain.CompleteUploadRequest) (*domain.CompleteUploadResponse, error)
}

// ProgressFunc receives the percentage of a file already transferred.
type ProgressFunc func(percent float64)

// UploaderConfig holds configuration for the Uploader.
type UploaderConfig struct {
	ChunkSize int64
}

// Uploader transfers one file at a time in fixed-size parts.
type Uploader struct {
	backend   Backend
	chunkSize int64
	logger    zerolog.Logger
}

// NewUploader creates a new Uploader.
func NewUploader(b Backend, cfg UploaderConfig, logger zerolog.Logger) *Uploader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 5 * 1024 * 1024
	}
	return &Uploader{
		backend:   b,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}
}

// Upload transfers f and returns its durable URL. Canceling ctx aborts the
// transfer with ErrCanceled; the completion call is then never made.
func (u *Uploader) Upload(ctx context.Context, f File, chatID string, onProgress ProgressFunc) (string, error) {
	if f.Size <= 0 {
		return "", ErrEmptyFile
	}
	if err := ctx.Err(); err != nil {
		return "", ErrCanceled
	}

	start, err := u.backend.StartUpload(ctx, domain.StartUploadRequest{
		FileName: f.Name,
		FileType: f.Type,
		ChatID:   chatID,
	})
	if err != nil {
		return "", u.fail(ctx, "start upload", err)
	}

	l := u.logger.With().
		Str(pkglog.FieldUploadID, start.UploadID).
		Str(pkglog.FieldFileName, f.Name).
		Logger()

	parts := Partition(f.Size, u.chunkSize)
	l.Debug().Int(pkglog.FieldParts, len(parts)).Int64("size", f.Size).Msg("upload started")

	if err := ctx.Err(); err != nil {
		return "", ErrCanceled
	}
	signed, err := u.backend.PartURLs(ctx, domain.PartURLsRequest{
		UploadID: start.UploadID,
		Key:      start.Key,
		Parts:    Numbers(parts),
	})
	if err != nil {
		return "", u.fail(ctx, "request part urls", err)
	}

	urls := make(map[int]string, len(signed.URLs))
	for _, p := range signed.URLs {
		urls[p.PartNumber] = p.SignedURL
	}

	tracker := &progress{total: f.Size, fn: onProgress}
	completed := make([]domain.CompletedPart, 0, len(parts))

	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			l.Info().Int(pkglog.FieldPartNumber, part.Number).Msg("upload canceled")
			return "", ErrCanceled
		}

		signedURL, ok := urls[part.Number]
		if !ok {
			return "", fmt.Errorf("part %d: %w", part.Number, ErrMissingURL)
		}

		number := part.Number
		tracker.begin(number)
		body := &countingReader{
			r:      io.NewSectionReader(f.Body, part.Offset, part.Length),
			onRead: func(n int) { tracker.read(number, n) },
		}
		etag, err := u.backend.UploadPart(ctx, signedURL, body, part.Length, f.Type)
		if err != nil {
			return "", u.fail(ctx, fmt.Sprintf("upload part %d", part.Number), err)
		}

		tracker.finishPart(part.Length)
		completed = append(completed, domain.CompletedPart{ETag: etag, PartNumber: part.Number})
		l.Debug().Int(pkglog.FieldPartNumber, part.Number).Msg("part uploaded")
	}

	if err := ctx.Err(); err != nil {
		return "", ErrCanceled
	}
	done, err := u.backend.CompleteUpload(ctx, domain.CompleteUploadRequest{
		UploadID: start.UploadID,
		Key:      start.Key,
		Parts:    completed,
	})
	if err != nil {
		return "", u.fail(ctx, "complete upload", err)
	}

	l.Info().Int(pkglog.FieldParts, len(completed)).Msg("upload completed")
	return done.FileURL, nil
}

// fail maps errors caused by cancellation to ErrCanceled.
func (u *Uploader) fail(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	return fmt.Errorf("failed to %s: %w", step, err)
}

// progress reports completed bytes plus bytes read from the current part.
// Reports only ever increase and stop at 100. Safe for concurrent use;
// reads for a part other than the one in flight are ignored.
type progress struct {
	mu      sync.Mutex
	total   int64
	done    int64 // bytes of finished parts
	current int64 // bytes read from the part in flight
	part    int
	last    float64
	fn      ProgressFunc
}

func (p *progress) begin(part int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.part = part
	p.current = 0
}

func (p *progress) read(part, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if part != p.part {
		return
	}
	p.current += int64(n)
	p.report()
}

func (p *progress) finishPart(length int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += length
	p.current = 0
	p.part = 0
	p.report()
}

// report must be called with mu held.
func (p *progress) report() {
	pct := float64(p.done+p.current) / float64(p.total) * 100
	if pct > 100 {
		pct = 100
	}
	if pct <= p.last {
		return
	}
	p.last = pct
	if p.fn != nil {
		p.fn(pct)
	}
}

type countingReader struct {
	r      io.Reader
	onRead func(n int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.onRead(n)
	}
	return n, err
}
