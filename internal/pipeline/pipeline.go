package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/denysyudin/captionize/internal/captions"
	"github.com/denysyudin/captionize/internal/jobs"
	"github.com/denysyudin/captionize/internal/media"
	"github.com/denysyudin/captionize/internal/timeline"
	"github.com/denysyudin/captionize/pkg/file"
	"github.com/denysyudin/captionize/pkg/log"
)

// Engine renders and joins segments of one source video.
type Engine interface {
	Probe(ctx context.Context) (media.Info, error)
	RenderSegment(ctx context.Context, seg timeline.Segment, settings captions.Settings, outputPath string) error
	Concat(ctx context.Context, segmentPaths []string, outputPath string) error
}

// EngineFactory opens an Engine over a local source file.
type EngineFactory func(srcPath string) Engine

// Downloader fetches a remote video into a local directory.
type Downloader interface {
	Fetch(ctx context.Context, rawURL, destDir string) (string, error)
}

// Pipeline drives one captioning job end to end: download, validate the
// transcript against the probed duration, fill timeline gaps, transform
// word text, render each segment, and concatenate the result.
type Pipeline struct {
	fetcher   Downloader
	newEngine EngineFactory
	outputDir string
}

func New(fetcher Downloader, newEngine EngineFactory, outputDir string) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		newEngine: newEngine,
		outputDir: outputDir,
	}
}

// Execute implements jobs.Executor. All scratch state (downloaded source,
// per-segment clips, concat output) lives in one temp directory removed on
// every return path; only the final artifact leaves it.
func (p *Pipeline) Execute(ctx context.Context, job *jobs.CaptionJob, update jobs.StatusUpdater) (string, error) {
	workDir, err := os.MkdirTemp("", "captionize-"+job.ID+"-")
	if err != nil {
		return "", WrapError(err, ErrConfig, "create scratch directory")
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("Failed to remove scratch dir %s: %v", workDir, err)
		}
	}()

	update(jobs.StatusDownloading)
	srcPath, err := p.fetcher.Fetch(ctx, job.Request.VideoURL, workDir)
	if err != nil {
		return "", WrapError(err, ErrDownload, "fetch source video").WithContext("url", job.Request.VideoURL)
	}

	update(jobs.StatusProcessing)
	engine := p.newEngine(srcPath)

	info, err := engine.Probe(ctx)
	if err != nil {
		return "", WrapError(err, ErrProbe, "probe source video")
	}

	valid := timeline.Validate(job.Request.Transcription, info.Duration)
	if len(valid) == 0 {
		return "", NewError(ErrNoValidSegments, "transcript has no usable intervals").
			WithContext("raw_intervals", len(job.Request.Transcription))
	}
	segments := timeline.FillGaps(valid, info.Duration)
	log.Info("Job %s: %d segments over %.3fs (%d words kept of %d)",
		job.ID, len(segments), info.Duration, len(valid), len(job.Request.Transcription))

	settings := job.Request.Settings
	segmentPaths := make([]string, 0, len(segments))
	for i, seg := range segments {
		// Leave room for cancellation between renders.
		if err := ctx.Err(); err != nil {
			return "", WrapError(err, ErrRender, "job cancelled")
		}

		seg.Text = captions.Transform(seg.Text, job.Request.Replace, settings.AllCaps)

		segPath := filepath.Join(workDir, fmt.Sprintf("segment_%04d.mp4", i))
		if err := engine.RenderSegment(ctx, seg, settings, segPath); err != nil {
			return "", WrapError(err, ErrRender, "render segment").
				WithContext("segment", i).
				WithContext("start", seg.Start).
				WithContext("end", seg.End)
		}
		segmentPaths = append(segmentPaths, segPath)
	}

	mergedPath := filepath.Join(workDir, "merged.mp4")
	if err := engine.Concat(ctx, segmentPaths, mergedPath); err != nil {
		return "", WrapError(err, ErrEncode, "concatenate segments")
	}

	outputPath := filepath.Join(p.outputDir, fmt.Sprintf("processed_%s.mp4", uuid.NewString()))
	if err := file.Move(mergedPath, outputPath); err != nil {
		return "", WrapError(err, ErrEncode, "write output artifact")
	}

	log.Info("Job %s: wrote %s", job.ID, outputPath)
	return outputPath, nil
}
