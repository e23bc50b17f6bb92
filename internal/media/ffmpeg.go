package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/denysyudin/captionize/internal/captions"
	"github.com/denysyudin/captionize/internal/timeline"
	"github.com/denysyudin/captionize/pkg/log"
)

// edge margin in pixels for non-centered caption anchors
const anchorMargin = 20

type ffmpeg struct {
	ffmpegCmd  string
	ffprobeCmd string
	filePath   string
}

// NewFfmpeg wraps the source video at mediaPath. Each render call runs an
// independent ffmpeg process reading the source, so the source file itself
// is never mutated.
func NewFfmpeg(mediaPath string) ffmpeg {
	return NewFfmpegWithCommands(mediaPath, "ffmpeg", "ffprobe")
}

// NewFfmpegWithCommands allows overriding the binary names, mainly for
// configuration and tests.
func NewFfmpegWithCommands(mediaPath, ffmpegCmd, ffprobeCmd string) ffmpeg {
	return ffmpeg{
		ffmpegCmd:  ffmpegCmd,
		ffprobeCmd: ffprobeCmd,
		filePath:   filepath.Clean(mediaPath),
	}
}

// Probe reads the container duration via ffprobe.
func (ff ffmpeg) Probe(ctx context.Context) (Info, error) {
	cmdPath, err := exec.LookPath(ff.ffprobeCmd)
	if err != nil {
		return Info{}, err
	}
	cmd := exec.CommandContext(ctx, cmdPath, ff.probeArgs()...)

	output, err := cmd.Output()
	if err != nil {
		log.Error("Failed to run ffprobe on %s: %v", ff.filePath, err)
		return Info{}, err
	}

	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		log.Error("Failed to parse ffprobe output: %v", err)
		return Info{}, err
	}

	duration, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return Info{}, fmt.Errorf("parse duration %q: %w", probeResult.Format.Duration, err)
	}
	if duration <= 0 {
		return Info{}, fmt.Errorf("non-positive duration %v for %s", duration, ff.filePath)
	}
	return Info{Duration: duration}, nil
}

// RenderSegment extracts the segment's time range from the source into
// outputPath. Word segments with non-empty text get a drawtext layer whose
// visibility spans the whole segment; gap segments are extracted as-is.
// Text rendering failures (a missing font included) surface as errors
// rather than falling back to a different look.
func (ff ffmpeg) RenderSegment(ctx context.Context, seg timeline.Segment, settings captions.Settings, outputPath string) error {
	cmdPath, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return err
	}
	return runFfmpeg(ctx, cmdPath, ff.segmentArgs(seg, settings, outputPath))
}

// Concat joins the rendered segment files, in order, into outputPath using
// the concat demuxer with stream copy, so the join itself re-encodes
// nothing at the cut boundaries.
func (ff ffmpeg) Concat(ctx context.Context, segmentPaths []string, outputPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}
	cmdPath, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return err
	}

	listPath := filepath.Join(filepath.Dir(outputPath), "segments.txt")
	if err := os.WriteFile(listPath, []byte(concatList(segmentPaths)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	return runFfmpeg(ctx, cmdPath, ff.concatArgs(listPath, outputPath))
}

func runFfmpeg(ctx context.Context, cmdPath string, args []string) error {
	cmd := exec.CommandContext(ctx, cmdPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}

func (ff ffmpeg) probeArgs() []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		ff.filePath,
	}
}

func (ff ffmpeg) segmentArgs(seg timeline.Segment, settings captions.Settings, outputPath string) []string {
	args := []string{
		"-y",
		"-v", "error",
		"-ss", formatSeconds(seg.Start),
		"-i", ff.filePath,
		"-t", formatSeconds(seg.Duration()),
	}
	if seg.HasText() {
		args = append(args, "-vf", buildDrawtext(seg.Text, settings))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		outputPath,
	)
	return args
}

func (ff ffmpeg) concatArgs(listPath, outputPath string) []string {
	return []string{
		"-y",
		"-v", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
}

// buildDrawtext assembles the drawtext filter for one caption layer. The
// text is word-wrapped here so the layer matches the configured line
// width, then escaped for the filtergraph.
func buildDrawtext(text string, settings captions.Settings) string {
	wrapped := captions.WrapWords(text, settings.MaxWordsPerLine)
	anchor := captions.ParsePosition(settings.Position)

	parts := []string{
		"text='" + escapeDrawtext(wrapped) + "'",
		"font='" + escapeDrawtext(fontPattern(settings)) + "'",
		"fontsize=" + strconv.Itoa(settings.FontSize),
		"fontcolor=" + settings.WordColor,
		"x=" + anchorXExpr(anchor.Horizontal),
		"y=" + anchorYExpr(anchor.Vertical),
	}
	if w := settings.OutlineWidth; w != nil && *w > 0 {
		parts = append(parts,
			"borderw="+strconv.Itoa(*w),
			"bordercolor=black",
		)
	}
	if settings.ShadowOffset != 0 {
		parts = append(parts,
			"shadowx="+strconv.Itoa(settings.ShadowOffset),
			"shadowy="+strconv.Itoa(settings.ShadowOffset),
			"shadowcolor=black",
		)
	}
	return "drawtext=" + strings.Join(parts, ":")
}

// fontPattern builds a fontconfig pattern carrying the weight and slant
// flags. Underline and strikeout are not expressible through drawtext and
// are ignored.
func fontPattern(settings captions.Settings) string {
	styles := make([]string, 0, 2)
	if settings.Bold {
		styles = append(styles, "Bold")
	}
	if settings.Italic {
		styles = append(styles, "Italic")
	}
	if len(styles) == 0 {
		return settings.FontFamily
	}
	return settings.FontFamily + ":style=" + strings.Join(styles, " ")
}

func anchorXExpr(horizontal string) string {
	switch horizontal {
	case "left":
		return strconv.Itoa(anchorMargin)
	case "right":
		return fmt.Sprintf("w-text_w-%d", anchorMargin)
	default:
		return "(w-text_w)/2"
	}
}

func anchorYExpr(vertical string) string {
	switch vertical {
	case "top":
		return strconv.Itoa(anchorMargin)
	case "bottom":
		return fmt.Sprintf("h-text_h-%d", anchorMargin)
	default:
		return "(h-text_h)/2"
	}
}

var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `'\\\''`,
	`:`, `\:`,
	`%`, `\%`,
)

// escapeDrawtext escapes filtergraph metacharacters inside a drawtext
// option value. The value is wrapped in single quotes by the caller, and
// a quote cannot be escaped inside a quoted section, so each quote closes
// the section, emits an escaped quote, and reopens it (the same discipline
// as concatList). Newlines stay literal; drawtext renders them as line
// breaks.
func escapeDrawtext(s string) string {
	return drawtextEscaper.Replace(s)
}

// concatList renders the concat demuxer file list. Single quotes inside
// paths are closed, escaped, and reopened per the demuxer's quoting rules.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, `'`, `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
