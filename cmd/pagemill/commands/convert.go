package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/cmd/pagemill/ui"
	"github.com/pagemill/pagemill/internal/extract"
)

var (
	outputDir  string
	startPage  int
	endPage    int
	batchSize  int
	saveImages bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <pdf>",
	Short: "Convert a PDF document to markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sink := ui.NewTerminalSink(cmd.OutOrStdout())
		defer sink.Close()

		runner := extract.NewRunner(cfg, sink, logger)
		totals, err := runner.Run(ctx, extract.RunOptions{
			PDFPath:    args[0],
			OutputDir:  outputDir,
			StartPage:  startPage,
			EndPage:    endPage,
			BatchSize:  batchSize,
			SaveImages: saveImages,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) && totals != nil {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(),
					"\ninterrupted after %d page(s); partial output kept\n", totals.Pages)
				return nil
			}
			return err
		}

		bold := color.New(color.Bold)
		fmt.Fprintln(cmd.OutOrStdout())
		bold.Fprintln(cmd.OutOrStdout(), "Conversion complete")
		fmt.Fprintf(cmd.OutOrStdout(), "  pages:         %d\n", totals.Pages)
		fmt.Fprintf(cmd.OutOrStdout(), "  batches:       %d\n", totals.Batches)
		fmt.Fprintf(cmd.OutOrStdout(), "  input tokens:  %d\n", totals.InputTokens)
		fmt.Fprintf(cmd.OutOrStdout(), "  output tokens: %d\n", totals.OutputTokens)
		if saveImages {
			fmt.Fprintf(cmd.OutOrStdout(), "  images saved:  %d\n", totals.ImagesExtracted)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  elapsed:       %s\n", totals.Elapsed.Round(time.Second))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: next to the PDF)")
	convertCmd.Flags().IntVar(&startPage, "start-page", 0, "first page to convert (1-indexed)")
	convertCmd.Flags().IntVar(&endPage, "end-page", 0, "last page to convert (default: end of document)")
	convertCmd.Flags().IntVar(&batchSize, "batch-size", 0, "pages per model call batch")
	convertCmd.Flags().BoolVar(&saveImages, "save-images", false, "extract figures and diagrams as image files")
	rootCmd.AddCommand(convertCmd)
}
