package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	"github.com/anime-shed/media-inspector-go/internal/config"
	"github.com/anime-shed/media-inspector-go/internal/container"
	"github.com/anime-shed/media-inspector-go/internal/decoder"
	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/factory"
	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/internal/report"
	"github.com/anime-shed/media-inspector-go/internal/strategy"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

const defaultOutput = "results.json"

var analyzeOpts struct {
	output          string
	firstFrameDir   string
	firstFrameWidth uint
	preset          string
	sampleCount     int
	paletteSize     int
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file> [file...]",
	Short: "Analyze images and videos and write a JSON report",
	Long: `Analyze each file by extension.

Images: jpg, jpeg, png, bmp, tiff, tif, gif, webp
Videos: mp4, avi, mov, mkv, wmv, flv, webm, m4v

Missing files and unsupported types are reported and skipped. An output path
ending in .zst is written zstd-compressed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		c, err := container.NewContainer(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		opts, err := c.Options(factory.AnalysisPreset(analyzeOpts.preset))
		if err != nil {
			return err
		}
		if analyzeOpts.sampleCount != 0 {
			opts = opts.WithSampleCount(analyzeOpts.sampleCount)
		}
		if analyzeOpts.paletteSize != 0 {
			opts = opts.WithPaletteSize(analyzeOpts.paletteSize)
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		b := &batch{
			strategies:      c.Strategies(),
			firstFrame:      c.Service().FirstFrame,
			options:         opts,
			firstFrameDir:   analyzeOpts.firstFrameDir,
			firstFrameWidth: analyzeOpts.firstFrameWidth,
			out:             cmd.OutOrStdout(),
		}
		doc := b.run(cmd.Context(), args)

		if err := report.WriteFile(analyzeOpts.output, doc); err != nil {
			return err
		}
		fmt.Fprintf(b.out, "Results written to: %s\n", analyzeOpts.output)
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeOpts.output, "output", "o", defaultOutput, "output JSON file (.zst for compressed)")
	f.StringVar(&analyzeOpts.firstFrameDir, "first-frame-dir", "", "save each video's first frame as <name>_first_frame.jpg in this directory")
	f.UintVar(&analyzeOpts.firstFrameWidth, "first-frame-width", 0, "downscale exported first frames to this width")
	f.StringVar(&analyzeOpts.preset, "preset", "default", "analysis preset: default, fast, detailed")
	f.IntVar(&analyzeOpts.sampleCount, "sample-count", 0, "frames sampled per video (overrides preset)")
	f.IntVar(&analyzeOpts.paletteSize, "palette-size", 0, "dominant colors reported (overrides preset)")
}

// batch analyzes files one at a time and collects a report
type batch struct {
	strategies      *strategy.AnalysisContext
	firstFrame      firstFrameFunc
	options         analyzer.AnalysisOptions
	firstFrameDir   string
	firstFrameWidth uint
	out             io.Writer
}

type firstFrameFunc = func(ctx context.Context, filePath string) (*frame.Buffer, error)

func (b *batch) run(ctx context.Context, files []string) *report.Document {
	doc := report.NewDocument()

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			fmt.Fprintf(b.out, "File does not exist: %s\n", file)
			doc.AddSkipped(file, "file does not exist")
			continue
		}

		mediaType := decoder.DetectMediaType(file)
		if mediaType == models.MediaTypeUnknown {
			fmt.Fprintf(b.out, "Unsupported file type: %s\n", file)
			doc.AddSkipped(file, "unsupported file type")
			continue
		}

		fmt.Fprintf(b.out, "Processing %s: %s\n", mediaType, file)
		outcome, err := b.strategies.ExecuteAnalysis(ctx, file, b.options)
		if err != nil {
			logger.WithError(err).WithField("file", file).Error("Analysis failed")
			fmt.Fprintf(b.out, "Failed to analyze %s: %s\n", file, describe(err))
			doc.AddSkipped(file, describe(err))
			continue
		}

		switch outcome.MediaType {
		case models.MediaTypeImage:
			doc.AddImage(file, *outcome.Image)
		case models.MediaTypeVideo:
			doc.AddVideo(file, *outcome.Video)
			b.exportFirstFrame(ctx, file)
		}
	}

	return doc
}

func (b *batch) exportFirstFrame(ctx context.Context, file string) {
	if b.firstFrameDir == "" || b.firstFrame == nil {
		return
	}

	buf, err := b.firstFrame(ctx, file)
	if err == nil {
		err = report.SaveFirstFrame(report.FirstFramePath(b.firstFrameDir, file), buf, b.firstFrameWidth)
	}
	if err != nil {
		logger.WithError(err).WithField("file", file).Warn("First frame export failed")
		return
	}

	logger.WithFields(logrus.Fields{
		"file":  file,
		"path":  report.FirstFramePath(b.firstFrameDir, file),
		"width": b.firstFrameWidth,
	}).Debug("Exported first frame")
}

func describe(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return fmt.Sprintf("%s: %s", appErr.Type, appErr.Message)
	}
	return err.Error()
}
