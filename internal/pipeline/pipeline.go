package pipeline

import (
	"context"
	"image"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scanmark/internal/assessment"
	"scanmark/internal/barcode"
	"scanmark/internal/config"
	"scanmark/internal/raster"
	"scanmark/internal/resolve"
)

// Decoder finds the barcodes on one page image. Satisfied by
// barcode.Engine; tests substitute a stub. Decoding a page can be slow
// (retry passes), so it takes the run context and may return early on
// cancellation.
type Decoder interface {
	Decode(ctx context.Context, img image.Image) []barcode.Barcode
}

// Pipeline resolves a batch of scans into an Assessment. Page resolution
// runs on a bounded worker pool; results are committed in input-discovery
// order through a single sequential fold, so the Assessment is identical to
// what a one-page-at-a-time run would build.
type Pipeline struct {
	cfg      *config.Config
	decoder  Decoder
	resolver *resolve.Resolver
	logger   *zap.Logger
	debounce time.Duration

	// OnPage, when set, is called once per resolved page. Callbacks arrive
	// from worker goroutines; done is a monotonic completion count, not an
	// input position.
	OnPage func(done, total int, path string)
}

// New builds a Pipeline from config.
func New(cfg *config.Config, decoder Decoder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		decoder:  decoder,
		resolver: resolve.NewResolver(cfg.MaxGrade, cfg.Autorotate, logger),
		logger:   logger,
		debounce: defaultDebounce,
	}
}

type pageJob struct {
	index int
	path  string
}

// Run discovers the inputs and resolves every page. One attempt is built
// per source file (a PDF's pages stay together). On cancellation the
// returned Assessment holds the completed prefix of the run alongside the
// context error; it is never corrupted, only shorter.
func (p *Pipeline) Run(ctx context.Context, inputs []string) (*assessment.Assessment, error) {
	sources, err := Discover(inputs, filepath.Join(p.cfg.OutputDir, "pages"), p.cfg.DPI)
	if err != nil {
		return nil, err
	}

	var jobs []pageJob
	for _, src := range sources {
		for _, page := range src.Pages {
			jobs = append(jobs, pageJob{index: len(jobs), path: page})
		}
	}

	results := make([]resolve.Page, len(jobs))
	resolved := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	var done atomic.Int64
	for _, j := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[j.index] = p.resolvePage(gctx, j.path)
			resolved[j.index] = true
			if p.OnPage != nil {
				p.OnPage(int(done.Add(1)), len(jobs), j.path)
			}
			return nil
		})
	}
	runErr := g.Wait()

	// Sequential fold, input order. On cancellation only the contiguous
	// resolved prefix is committed, keeping the append-only guarantee.
	result := assessment.New()
	index := 0
	for _, src := range sources {
		pages := results[index : index+len(src.Pages)]
		complete := true
		for i := range pages {
			if !resolved[index+i] {
				complete = false
				break
			}
		}
		index += len(src.Pages)
		if !complete {
			break
		}
		ids, grade := mergePages(pages)
		result.Add(assessment.NewAttempt(pages, ids, grade))
	}
	return result, runErr
}

// resolvePage loads, decodes and resolves one page. An unreadable image
// degrades to an identity-less page record; it surfaces in the invalid
// bucket rather than aborting the batch.
func (p *Pipeline) resolvePage(ctx context.Context, path string) resolve.Page {
	img, err := raster.Load(path)
	if err != nil {
		// A truncated file often still carries a readable header; keep the
		// true page size so the rotation fallback works on what we know.
		w, h, derr := raster.Dimensions(path)
		if derr != nil {
			w, h = 0, 0
		}
		p.logger.Warn("unreadable page image", zap.String("page", path), zap.Error(err))
		return p.resolver.Resolve(path, w, h, nil)
	}
	b := img.Bounds()
	codes := p.decoder.Decode(ctx, img)
	p.logger.Debug("page decoded",
		zap.String("page", path),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("codes", len(codes)))
	return p.resolver.Resolve(path, b.Dx(), b.Dy(), codes)
}

// mergePages derives the attempt-level identifier triple and grade from its
// pages: first set value wins per field, in page order.
func mergePages(pages []resolve.Page) (resolve.Identifiers, *int) {
	var ids resolve.Identifiers
	var grade *int
	for _, pg := range pages {
		if ids.Copy == "" {
			ids.Copy = pg.IDs.Copy
		}
		if ids.Question == "" {
			ids.Question = pg.IDs.Question
		}
		if ids.Attempt == "" {
			ids.Attempt = pg.IDs.Attempt
		}
		if grade == nil {
			grade = pg.Grade
		}
	}
	return ids, grade
}
