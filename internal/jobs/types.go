package jobs

import (
	"time"

	"github.com/denysyudin/captionize/internal/captions"
	"github.com/denysyudin/captionize/internal/timeline"
)

type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// statusRank orders the one-way job lifecycle. Transitions never move to
// an equal or lower rank.
func statusRank(s Status) int {
	switch s {
	case StatusQueued:
		return 0
	case StatusDownloading:
		return 1
	case StatusProcessing:
		return 2
	case StatusCompleted, StatusFailed:
		return 3
	default:
		return -1
	}
}

// Terminal reports whether the status ends the job lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CaptionRequest is the immutable per-job input: the source video, the
// word-level transcript, the substitution rules, and the caption styling.
type CaptionRequest struct {
	VideoURL      string                  `json:"video_url"`
	Transcription []timeline.WordInterval `json:"transcription"`
	Replace       []captions.ReplaceRule  `json:"replace,omitempty"`
	Settings      captions.Settings       `json:"settings"`
}

type EnqueueRequest struct {
	// ID is optional; a fresh one is generated when empty. Submitting an
	// id that is already tracked returns the existing job.
	ID      string
	Request CaptionRequest
}

type CaptionJob struct {
	ID         string         `json:"id"`
	Request    CaptionRequest `json:"request"`
	Status     Status         `json:"status"`
	OutputPath string         `json:"output_path,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
