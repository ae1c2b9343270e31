package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"go-image-augmentor/internal/batch"
	"go-image-augmentor/internal/config"
	"go-image-augmentor/internal/logger"
	"go-image-augmentor/internal/observer"
	"go-image-augmentor/internal/storage"
	"go-image-augmentor/internal/technique"
)

func init() {
	rootCmd.AddCommand(blurCmd)
	blurCmd.Flags().IntVarP(&blurFlags.kernel, `kernel`, `k`, int(technique.DefaultKernelSize), `kernel size (3, 5, 7, 9 or 11)`)
	blurCmd.Flags().StringVarP(&blurFlags.paramsFile, `params`, `p`, ``, `YAML file with technique parameters`)
	blurCmd.Flags().StringVarP(&blurFlags.outDir, `out`, `o`, `augmented`, `output directory`)
	blurCmd.Flags().StringVarP(&blurFlags.format, `format`, `f`, ``, `output format (png, jpeg, bmp, tiff, gif); defaults to the input's`)
	blurCmd.Flags().StringVar(&blurFlags.suffix, `suffix`, ``, `output file name suffix; defaults to the technique name`)
	blurCmd.Flags().IntVarP(&blurFlags.workers, `workers`, `w`, 0, `concurrent files; 0 uses every CPU`)
}

var blurCmd = &cobra.Command{
	Use:   `blur [files...]`,
	Short: `apply a Gaussian blur to image files`,
	Long: `Apply a Gaussian blur to image files.

The kernel comes from --kernel, or from the "kernel" key of a --params YAML
file. An explicit --kernel wins over the file. Pixels beyond the image edge are
mirrored, so the output has the same size as the input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blurFlags.kernelSet = cmd.Flags().Changed(`kernel`)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runBlur(ctx, blurFlags, args, cmd.OutOrStdout())
	},
}

type blurOptions struct {
	kernel     int
	kernelSet  bool
	paramsFile string
	outDir     string
	format     string
	suffix     string
	workers    int
}

var blurFlags blurOptions

// blurParameters merges the parameter file with the --kernel flag
func blurParameters(opts blurOptions) (map[string]interface{}, error) {
	params, err := config.LoadTechniqueParameters(opts.paramsFile)
	if err != nil {
		return nil, err
	}
	if opts.kernelSet || opts.paramsFile == "" {
		params[technique.KernelKey] = opts.kernel
	}
	return params, nil
}

func runBlur(ctx context.Context, opts blurOptions, inputs []string, out io.Writer) error {
	params, err := blurParameters(opts)
	if err != nil {
		return err
	}
	blur, err := technique.NewGaussianBlurFromMap(params)
	if err != nil {
		return err
	}

	store, err := storage.NewFileStore(opts.outDir, opts.format)
	if err != nil {
		return err
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	defer publisher.Flush()

	results := batch.NewProcessor(blur, store, publisher, opts.workers, opts.suffix).Run(ctx, inputs)

	var failed int
	for _, res := range results {
		if res.Failed() {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", res.Input, res.Err)
			continue
		}
		fmt.Fprintf(out, "ok   %s -> %s (%s)\n", res.Input, res.Output, res.Duration.Round(time.Millisecond))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
