package extract

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pagemill/pagemill/internal/domain"
	"github.com/pagemill/pagemill/internal/llm"
	"github.com/pagemill/pagemill/internal/markdown"
	"github.com/pagemill/pagemill/internal/pdf"
	"github.com/pagemill/pagemill/internal/token"
)

// BatchResult is the joined outcome of one batch's two model calls.
type BatchResult struct {
	Headers         []markdown.Header
	InputTokens     int
	OutputTokens    int
	ImagesExtracted int
}

// BatchOrchestrator runs the per-batch pipeline: render the page range,
// downscale transmission copies, then fan out the transcription and
// image-extraction calls concurrently and join their results.
type BatchOrchestrator struct {
	client     *llm.Client
	rasterizer *pdf.Rasterizer
	validator  *ElementValidator
	encoder    token.TextEncoder
	renderDPI  int
	sendDPI    int
	saveImages bool
	imagesDir  string
	log        zerolog.Logger
}

// NewBatchOrchestrator wires the per-batch dependencies.
func NewBatchOrchestrator(
	client *llm.Client,
	rasterizer *pdf.Rasterizer,
	validator *ElementValidator,
	encoder token.TextEncoder,
	renderDPI, sendDPI int,
	saveImages bool,
	imagesDir string,
	log zerolog.Logger,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		client:     client,
		rasterizer: rasterizer,
		validator:  validator,
		encoder:    encoder,
		renderDPI:  renderDPI,
		sendDPI:    sendDPI,
		saveImages: saveImages,
		imagesDir:  imagesDir,
		log:        log,
	}
}

// Run processes a single batch. Transcribed markdown streams into out
// as it arrives; accepted visual-element crops land in the images
// directory. The context carries the per-batch deadline, and the stack
// carries the heading path accumulated by earlier batches.
func (o *BatchOrchestrator) Run(
	ctx context.Context,
	batch BatchDescriptor,
	stack markdown.HeaderStack,
	out io.Writer,
	sink domain.ProgressSink,
) (*BatchResult, error) {
	pages, err := o.rasterizer.RenderRange(ctx, batch.PageStart, batch.PageEnd, sink)
	if err != nil {
		return nil, err
	}

	// The model sees smaller copies than the crops are cut from.
	sendPages := make([]domain.PageImage, len(pages))
	for i, p := range pages {
		sendPages[i], err = pdf.Downscale(p, o.renderDPI, o.sendDPI)
		if err != nil {
			return nil, err
		}
	}

	// An empty stack means the very first batch; the client substitutes
	// its start-of-document placeholder for the missing breadcrumb.
	contextText := ""
	if len(stack) > 0 {
		contextText = markdown.BuildContext(stack)
	}

	var (
		textResult *llm.TextResult
		elements   []domain.ImageMetadata
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		textResult, err = o.client.CallText(gctx, batch.BatchNum, sendPages, contextText, out, sink, o.encoder)
		return err
	})
	if o.saveImages {
		g.Go(func() error {
			var err error
			elements, err = o.client.CallImages(gctx, batch.BatchNum, sendPages, contextText)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	saved := 0
	if o.saveImages && len(elements) > 0 {
		saved = o.validator.Process(elements, pages, o.imagesDir, sink)
	}

	return &BatchResult{
		Headers:         textResult.Headers,
		InputTokens:     textResult.InputTokens,
		OutputTokens:    textResult.OutputTokens,
		ImagesExtracted: saved,
	}, nil
}
