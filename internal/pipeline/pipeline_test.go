package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysyudin/captionize/internal/captions"
	"github.com/denysyudin/captionize/internal/jobs"
	"github.com/denysyudin/captionize/internal/media"
	"github.com/denysyudin/captionize/internal/timeline"
)

type stubDownloader struct {
	err   error
	calls int
}

func (d *stubDownloader) Fetch(_ context.Context, _, destDir string) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	localPath := filepath.Join(destDir, "source.mp4")
	if err := os.WriteFile(localPath, []byte("src"), 0o644); err != nil {
		return "", err
	}
	return localPath, nil
}

type renderedSegment struct {
	seg      timeline.Segment
	settings captions.Settings
}

type stubEngine struct {
	duration  float64
	probeErr  error
	renderErr error
	concatErr error

	srcPath  string
	rendered []renderedSegment
	concated []string
}

func (e *stubEngine) Probe(_ context.Context) (media.Info, error) {
	if e.probeErr != nil {
		return media.Info{}, e.probeErr
	}
	return media.Info{Duration: e.duration}, nil
}

func (e *stubEngine) RenderSegment(_ context.Context, seg timeline.Segment, settings captions.Settings, outputPath string) error {
	if e.renderErr != nil {
		return e.renderErr
	}
	e.rendered = append(e.rendered, renderedSegment{seg: seg, settings: settings})
	return os.WriteFile(outputPath, []byte("clip"), 0o644)
}

func (e *stubEngine) Concat(_ context.Context, segmentPaths []string, outputPath string) error {
	if e.concatErr != nil {
		return e.concatErr
	}
	e.concated = segmentPaths
	return os.WriteFile(outputPath, []byte("merged"), 0o644)
}

func newTestPipeline(t *testing.T, engine *stubEngine) (*Pipeline, *stubDownloader, string) {
	t.Helper()
	outputDir := t.TempDir()
	fetcher := &stubDownloader{}
	p := New(fetcher, func(srcPath string) Engine {
		engine.srcPath = srcPath
		return engine
	}, outputDir)
	return p, fetcher, outputDir
}

func testJob(transcription []timeline.WordInterval, rules []captions.ReplaceRule, settings captions.Settings) *jobs.CaptionJob {
	return &jobs.CaptionJob{
		ID: "job-test",
		Request: jobs.CaptionRequest{
			VideoURL:      "https://example.com/in.mp4",
			Transcription: transcription,
			Replace:       rules,
			Settings:      settings,
		},
		Status:    jobs.StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func noStatus(jobs.Status) {}

func TestPipeline_Execute_RendersGapsWordsAndTrailingSilence(t *testing.T) {
	engine := &stubEngine{duration: 10}
	p, fetcher, outputDir := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{
		{Word: "hello", Start: 1, End: 2},
		{Word: "world", Start: 2, End: 3},
	}, nil, captions.Default())

	var phases []jobs.Status
	outputPath, err := p.Execute(context.Background(), job, func(s jobs.Status) {
		phases = append(phases, s)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []jobs.Status{jobs.StatusDownloading, jobs.StatusProcessing}, phases)

	// leading gap, two words, trailing gap
	require.Len(t, engine.rendered, 4)
	assert.Equal(t, timeline.Segment{Start: 0, End: 1}, engine.rendered[0].seg)
	assert.Equal(t, timeline.Segment{Start: 1, End: 2, Text: "hello"}, engine.rendered[1].seg)
	assert.Equal(t, timeline.Segment{Start: 2, End: 3, Text: "world"}, engine.rendered[2].seg)
	assert.Equal(t, timeline.Segment{Start: 3, End: 10}, engine.rendered[3].seg)

	require.Len(t, engine.concated, 4)

	assert.True(t, strings.HasPrefix(filepath.Base(outputPath), "processed_"))
	assert.Equal(t, outputDir, filepath.Dir(outputPath))
	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "merged", string(content))
}

func TestPipeline_Execute_AppliesTextTransforms(t *testing.T) {
	engine := &stubEngine{duration: 2}
	p, _, _ := newTestPipeline(t, engine)

	settings := captions.Default()
	settings.AllCaps = true
	job := testJob(
		[]timeline.WordInterval{{Word: "damn", Start: 0, End: 2}},
		[]captions.ReplaceRule{{Find: "damn", Replace: "[bleep]"}},
		settings,
	)

	_, err := p.Execute(context.Background(), job, noStatus)

	require.NoError(t, err)
	require.Len(t, engine.rendered, 1)
	assert.Equal(t, "[BLEEP]", engine.rendered[0].seg.Text)
}

func TestPipeline_Execute_MalformedIntervalsNeverReachRenderer(t *testing.T) {
	engine := &stubEngine{duration: 5}
	p, _, _ := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{
		{Word: "ok", Start: 0, End: 5},
		{Word: "reversed", Start: 4, End: 3},
		{Word: "late", Start: 4, End: 6},
		{Word: "negative", Start: -1, End: 1},
	}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)

	require.NoError(t, err)
	require.Len(t, engine.rendered, 1)
	assert.Equal(t, "ok", engine.rendered[0].seg.Text)
}

func TestPipeline_Execute_NoValidSegments(t *testing.T) {
	engine := &stubEngine{duration: 5}
	p, _, _ := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{
		{Word: "bad", Start: 3, End: 2},
	}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrNoValidSegments))
	assert.Empty(t, engine.rendered)
}

func TestPipeline_Execute_DownloadFailure(t *testing.T) {
	engine := &stubEngine{duration: 5}
	p, fetcher, _ := newTestPipeline(t, engine)
	fetcher.err = assert.AnError

	job := testJob([]timeline.WordInterval{{Word: "a", Start: 0, End: 1}}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrDownload))
}

func TestPipeline_Execute_ProbeFailure(t *testing.T) {
	engine := &stubEngine{probeErr: assert.AnError}
	p, _, _ := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{{Word: "a", Start: 0, End: 1}}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrProbe))
}

func TestPipeline_Execute_RenderFailureFailsJob(t *testing.T) {
	engine := &stubEngine{duration: 5, renderErr: assert.AnError}
	p, _, outputDir := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{{Word: "a", Start: 0, End: 1}}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrRender))

	// No artifact may leak from a failed render.
	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestPipeline_Execute_ConcatFailure(t *testing.T) {
	engine := &stubEngine{duration: 5, concatErr: assert.AnError}
	p, _, _ := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{{Word: "a", Start: 0, End: 1}}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrEncode))
}

func TestPipeline_Execute_CancelledBetweenSegments(t *testing.T) {
	engine := &stubEngine{duration: 5}
	p, _, _ := newTestPipeline(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := testJob([]timeline.WordInterval{{Word: "a", Start: 0, End: 1}}, nil, captions.Default())

	_, err := p.Execute(ctx, job, noStatus)

	require.Error(t, err)
	assert.Empty(t, engine.rendered)
}

func TestPipeline_Execute_CleansScratchDirectory(t *testing.T) {
	engine := &stubEngine{duration: 2}
	p, _, _ := newTestPipeline(t, engine)

	job := testJob([]timeline.WordInterval{{Word: "a", Start: 0, End: 2}}, nil, captions.Default())

	_, err := p.Execute(context.Background(), job, noStatus)
	require.NoError(t, err)

	matches, globErr := filepath.Glob(filepath.Join(os.TempDir(), "captionize-"+job.ID+"-*"))
	require.NoError(t, globErr)
	assert.Empty(t, matches)
}
