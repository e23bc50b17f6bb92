package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/denysyudin/captionize/internal/captions"
	"github.com/denysyudin/captionize/internal/jobs"
	"github.com/denysyudin/captionize/internal/timeline"
)

type submitJobRequest struct {
	ID            string                  `json:"id"`
	VideoURL      string                  `json:"video_url"`
	Transcription []timeline.WordInterval `json:"transcription"`
	Replace       []captions.ReplaceRule  `json:"replace"`
	Settings      captions.Settings       `json:"settings"`
}

// jobResponse is the external view of a job. The filesystem output path is
// exposed as a file URL.
type jobResponse struct {
	ID        string      `json:"id"`
	Status    jobs.Status `json:"status"`
	OutputURL string      `json:"output_url,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

func toJobResponse(job *jobs.CaptionJob) jobResponse {
	ret := jobResponse{
		ID:        job.ID,
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if job.OutputPath != "" {
		ret.OutputURL = "file://" + job.OutputPath
	}
	return ret
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobList := s.queue.List()
		ret := make([]jobResponse, 0, len(jobList))
		for _, job := range jobList {
			ret = append(ret, toJobResponse(job))
		}
		writeJSON(w, http.StatusOK, ret)
	case http.MethodPost:
		var req submitJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if strings.TrimSpace(req.VideoURL) == "" {
			writeError(w, http.StatusBadRequest, "video_url is required")
			return
		}

		job, _ := s.queue.Enqueue(jobs.EnqueueRequest{
			ID: req.ID,
			Request: jobs.CaptionRequest{
				VideoURL:      req.VideoURL,
				Transcription: req.Transcription,
				Replace:       req.Replace,
				Settings:      req.Settings.WithDefaults(),
			},
		})
		writeJSON(w, http.StatusAccepted, map[string]any{
			"id":     job.ID,
			"status": job.Status,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	jobID = strings.TrimSuffix(jobID, "/")
	if decoded, err := url.PathUnescape(jobID); err == nil {
		jobID = decoded
	}
	if jobID == "" || strings.Contains(jobID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	job, ok := s.queue.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
