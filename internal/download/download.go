package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/denysyudin/captionize/pkg/file"
	"github.com/denysyudin/captionize/pkg/log"
)

type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher using the given client, or a default
// client without a deadline when nil; a supervisor can still cancel
// through the context.
func NewFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return Fetcher{client: client}
}

// Fetch streams the remote video into destDir and returns the local path.
// The body is copied straight to disk, so memory use stays bounded
// regardless of file size. A partial file is removed on any error.
func (f Fetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	localPath := filepath.Join(destDir, localFilename(rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s fetching %s", resp.Status, rawURL)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("stream download: %w", err)
	}

	log.Info("Downloaded %s (%d bytes) to %s", rawURL, written, localPath)
	return localPath, nil
}

// localFilename derives a safe local name from the URL path, falling back
// to a generated one when the URL carries none.
func localFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Sprintf("video_%s.mp4", uuid.NewString())
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" || strings.Contains(name, "..") {
		return fmt.Sprintf("video_%s.mp4", uuid.NewString())
	}
	if filepath.Ext(name) == "" {
		name = file.ReplaceExt(name, ".mp4")
	}
	return name
}
