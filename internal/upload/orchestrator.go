package upload

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// FileUploader uploads a single file.
type FileUploader interface {
	Upload(ctx context.Context, f File, chatID string, onProgress ProgressFunc) (string, error)
}

// Callbacks observe a batch. Calls are serialized.
type Callbacks struct {
	// OnProgress receives the size-weighted batch percentage and the
	// per-file percentages in input order.
	OnProgress func(overall float64, perFile []float64)
	// OnFinish is called exactly once with the attachments that made it.
	OnFinish func(attachments []domain.Attachment)
}

// OrchestratorConfig holds configuration for the Orchestrator.
type OrchestratorConfig struct {
	MaxConcurrentFiles int
}

// Orchestrator uploads the files of one outgoing message concurrently.
type Orchestrator struct {
	uploader FileUploader
	registry *CancelRegistry
	limit    int
	logger   zerolog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(u FileUploader, registry *CancelRegistry, cfg OrchestratorConfig, logger zerolog.Logger) *Orchestrator {
	if cfg.MaxConcurrentFiles <= 0 {
		cfg.MaxConcurrentFiles = 4
	}
	return &Orchestrator{
		uploader: u,
		registry: registry,
		limit:    cfg.MaxConcurrentFiles,
		logger:   logger,
	}
}

// Registry returns the registry uploads are canceled through.
func (o *Orchestrator) Registry() *CancelRegistry {
	return o.registry
}

// Run uploads files for the message tempID and blocks until every file has
// settled. Failed and canceled files are left out of the result, which keeps
// input order.
func (o *Orchestrator) Run(ctx context.Context, tempID, chatID string, files []File, cb Callbacks) []domain.Attachment {
	if len(files) == 0 {
		attachments := []domain.Attachment{}
		if cb.OnFinish != nil {
			cb.OnFinish(attachments)
		}
		return attachments
	}

	l := o.logger.With().Str(pkglog.FieldTempID, tempID).Str(pkglog.FieldChat, chatID).Logger()

	var total int64
	ctxs := make([]context.Context, len(files))
	cancels := make([]context.CancelFunc, len(files))
	for i, f := range files {
		total += f.Size
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	o.registry.Register(tempID, cancels...)
	defer func() {
		o.registry.Clear(tempID)
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var mu sync.Mutex
	percents := make([]float64, len(files))
	urls := make([]string, len(files))

	report := func(i int, pct float64) {
		mu.Lock()
		defer mu.Unlock()
		percents[i] = pct
		if cb.OnProgress == nil {
			return
		}
		cb.OnProgress(overall(files, percents, total), append([]float64(nil), percents...))
	}

	l.Info().Int("files", len(files)).Int64("bytes", total).Msg("upload batch started")

	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := o.uploader.Upload(ctxs[i], f, chatID, func(pct float64) { report(i, pct) })
			if err != nil {
				if errors.Is(err, ErrCanceled) {
					l.Info().Str(pkglog.FieldFileName, f.Name).Msg("file upload canceled")
				} else {
					l.Warn().Err(err).Str(pkglog.FieldFileName, f.Name).Msg("file upload failed")
				}
				return nil
			}
			mu.Lock()
			urls[i] = url
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	attachments := make([]domain.Attachment, 0, len(files))
	for i, f := range files {
		if urls[i] == "" {
			continue
		}
		attachments = append(attachments, domain.Attachment{
			URL:  urls[i],
			Type: domain.AttachmentType(f.Type),
			Size: f.Size,
		})
	}

	l.Info().Int("uploaded", len(attachments)).Int("files", len(files)).Msg("upload batch settled")

	if cb.OnFinish != nil {
		mu.Lock()
		cb.OnFinish(attachments)
		mu.Unlock()
	}
	return attachments
}

func overall(files []File, percents []float64, total int64) float64 {
	if total <= 0 {
		return 0
	}
	var sum float64
	for i, f := range files {
		sum += float64(f.Size) * percents[i] / 100
	}
	pct := sum / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
