package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pagemill/pagemill/internal/config"
	"github.com/pagemill/pagemill/internal/domain"
	"github.com/pagemill/pagemill/internal/llm"
	"github.com/pagemill/pagemill/internal/markdown"
	"github.com/pagemill/pagemill/internal/pdf"
	"github.com/pagemill/pagemill/internal/token"
)

// RunOptions selects the document and page range for one conversion.
type RunOptions struct {
	PDFPath string
	// OutputDir defaults to the directory containing the PDF.
	OutputDir string
	StartPage int
	// EndPage of 0 means the document's last page.
	EndPage    int
	BatchSize  int
	SaveImages bool
}

// Runner drives a whole conversion: it plans batches, walks them in
// order so each batch sees the heading path built by its predecessors,
// and appends transcribed markdown to a single output file as it
// streams in. A failed run keeps the pages already written.
type Runner struct {
	cfg  *config.Config
	sink domain.ProgressSink
	log  zerolog.Logger
}

// NewRunner creates a Runner. A nil sink is replaced with a no-op one.
func NewRunner(cfg *config.Config, sink domain.ProgressSink, log zerolog.Logger) *Runner {
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Runner{cfg: cfg, sink: sink, log: log}
}

// Run converts the document and returns aggregate totals. Totals are
// returned alongside the error when some batches completed before the
// failure.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*domain.RunTotals, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := r.log.With().Str("run_id", runID).Str("pdf", opts.PDFPath).Logger()

	if err := pdf.ValidatePath(opts.PDFPath); err != nil {
		return nil, err
	}

	rasterizer, err := pdf.OpenDocument(opts.PDFPath, pdf.Options{
		DPI:            r.cfg.Processing.DPI,
		WhiteThreshold: r.cfg.Processing.WhiteThreshold,
	}, log)
	if err != nil {
		return nil, err
	}
	defer rasterizer.Close()

	startPage := opts.StartPage
	if startPage < 1 {
		startPage = r.cfg.Processing.StartPage
	}
	endPage := opts.EndPage
	if endPage == 0 || endPage > rasterizer.PageCount() {
		endPage = rasterizer.PageCount()
	}
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = r.cfg.Processing.BatchSize
	}

	plan := PlanBatches(startPage, endPage, batchSize)
	if len(plan) == 0 {
		return nil, fmt.Errorf("no pages to convert: start %d, end %d", startPage, endPage)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(opts.PDFPath)
	}
	imagesDir := filepath.Join(outDir, r.cfg.Output.ImagesDirName)
	if opts.SaveImages {
		if err := os.MkdirAll(imagesDir, 0o755); err != nil {
			return nil, fmt.Errorf("create images directory: %w", err)
		}
	}

	outputPath := filepath.Join(outDir, r.cfg.Output.MarkdownName)
	outFile, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	defer outFile.Close()

	encoder, err := token.NewTiktoken(r.cfg.API.TokenizerModel)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	client := llm.NewClient(llm.Options{
		BaseURL:     r.cfg.API.BaseURL,
		APIKey:      r.cfg.API.Key,
		Model:       r.cfg.API.Model,
		MaxTokens:   r.cfg.Processing.MaxTokens,
		Temperature: r.cfg.Processing.Temperature,
		MaxAttempts: r.cfg.Retry.MaxAttempts,
		BackoffBase: r.cfg.Retry.BackoffBase,
	}, log)

	validator := NewElementValidator(
		r.cfg.Extraction.MinAreaPercentage,
		r.cfg.Extraction.MaxAreaPercentage,
		log,
	)

	orchestrator := NewBatchOrchestrator(
		client,
		rasterizer,
		validator,
		encoder,
		r.cfg.Processing.DPI,
		r.cfg.Processing.DownscaleDPI,
		opts.SaveImages,
		imagesDir,
		log,
	)

	totals := &domain.RunTotals{}
	var stack markdown.HeaderStack

	log.Info().
		Int("pages", endPage-startPage+1).
		Int("batches", len(plan)).
		Msg("starting conversion")

	for _, batch := range plan {
		if err := ctx.Err(); err != nil {
			totals.Elapsed = time.Since(started)
			return totals, err
		}

		r.sink.BatchStarted(batch.BatchNum, len(plan), totals.InputTokens)
		log.Debug().
			Int("batch", batch.BatchNum).
			Int("page_start", batch.PageStart).
			Int("page_end", batch.PageEnd).
			Msg("processing batch")

		result, err := r.runBatch(ctx, orchestrator, batch, stack, outFile)
		if err != nil {
			r.sink.Error(err.Error())
			totals.Elapsed = time.Since(started)
			return totals, err
		}

		stack = stack.Update(result.Headers)
		totals.Batches++
		totals.Pages += batch.PageEnd - batch.PageStart + 1
		totals.InputTokens += result.InputTokens
		totals.OutputTokens += result.OutputTokens
		totals.ImagesExtracted += result.ImagesExtracted
		r.sink.PageTokens(result.InputTokens, result.OutputTokens)
	}

	totals.Elapsed = time.Since(started)
	r.sink.Completed(outputPath, *totals)
	log.Info().
		Int("pages", totals.Pages).
		Int("input_tokens", totals.InputTokens).
		Int("output_tokens", totals.OutputTokens).
		Int("images", totals.ImagesExtracted).
		Dur("elapsed", totals.Elapsed).
		Msg("conversion complete")
	return totals, nil
}

func (r *Runner) runBatch(
	ctx context.Context,
	orchestrator *BatchOrchestrator,
	batch BatchDescriptor,
	stack markdown.HeaderStack,
	out *os.File,
) (*BatchResult, error) {
	if timeout := r.cfg.Processing.BatchTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return orchestrator.Run(ctx, batch, stack, out, r.sink)
}
