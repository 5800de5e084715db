package volc

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/generation"
)

// saveArtifact materializes a provider result in the local media dir. The
// provider returns either inline base64 data or a download URL; exactly one
// must be present.
func (c *Client) saveArtifact(ctx context.Context, data, url, prefix, ext string, sceneNumber int, durationSecs float64) (*generation.Artifact, error) {
	name := fmt.Sprintf("%s_scene%02d_%s%s", prefix, sceneNumber, uuid.New().String()[:8], ext)
	localPath := filepath.Join(c.mediaDir, name)

	switch {
	case data != "":
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode artifact data: %v",
				generation.ErrInvalidResponse, err)
		}
		if err := writeFile(localPath, decoded); err != nil {
			return nil, err
		}

	case url != "":
		if err := c.download(ctx, url, localPath); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: response carries neither data nor URL",
			generation.ErrInvalidResponse)
	}

	return &generation.Artifact{
		URL:          url,
		LocalPath:    localPath,
		DurationSecs: durationSecs,
	}, nil
}

func (c *Client) download(ctx context.Context, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download failed: %v", generation.ErrTransientFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download returned %d", generation.ErrTransientFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: download read failed: %v", generation.ErrTransientFailure, err)
	}
	return writeFile(localPath, body)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact file: %w", err)
	}
	return nil
}
