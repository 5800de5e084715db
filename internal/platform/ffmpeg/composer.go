// Package ffmpeg composes generated scene assets into playable video by
// shelling out to the ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/config"
)

// DefaultBinary is the ffmpeg executable resolved from PATH.
const DefaultBinary = "ffmpeg"

// Composer runs ffmpeg to overlay narration onto scene clips and to
// concatenate the per-scene segments into the final video.
type Composer struct {
	logger    *slog.Logger
	outputDir string
	binary    string
}

// NewComposer creates a Composer writing into the configured output dir.
func NewComposer(storage config.StorageConfig, logger *slog.Logger) *Composer {
	return &Composer{
		logger:    logger,
		outputDir: storage.OutputDir,
		binary:    DefaultBinary,
	}
}

// ComposeScene overlays the narration audio onto the motion clip. The
// output is trimmed to the shorter of the two streams so silent tails never
// pad a scene.
func (c *Composer) ComposeScene(ctx context.Context, audioPath, videoPath string, durationSecs float64) (string, error) {
	segmentDir := filepath.Join(c.outputDir, "segments")
	if err := os.MkdirAll(segmentDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create segment directory: %w", err)
	}

	outPath := filepath.Join(segmentDir, fmt.Sprintf("segment_%s.mp4", uuid.New().String()[:8]))
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}

	if err := c.run(ctx, args); err != nil {
		return "", fmt.Errorf("scene composition failed: %w", err)
	}

	c.logger.Debug("scene segment composed",
		"video", videoPath,
		"audio", audioPath,
		"duration_secs", durationSecs,
		"segment", outPath)
	return outPath, nil
}

// Concat merges the segments, in order, into the final video named after
// the title.
func (c *Composer) Concat(ctx context.Context, segmentPaths []string, title string) (string, error) {
	if len(segmentPaths) == 0 {
		return "", fmt.Errorf("no segments to concatenate")
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	listPath := filepath.Join(c.outputDir, fmt.Sprintf("concat_%s.txt", uuid.New().String()[:8]))
	if err := os.WriteFile(listPath, []byte(concatList(segmentPaths)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	defer func() { _ = os.Remove(listPath) }()

	outPath := filepath.Join(c.outputDir, sanitizeFilename(title)+".mp4")
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}

	if err := c.run(ctx, args); err != nil {
		return "", fmt.Errorf("segment concatenation failed: %w", err)
	}

	c.logger.Info("final video merged",
		"segments", len(segmentPaths),
		"output", outPath)
	return outPath, nil
}

func (c *Composer) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s",
			c.binary, strings.Join(args, " "), err, lastLine(stderr.String()))
	}
	return nil
}

// concatList renders the ffmpeg concat demuxer input. Single quotes in
// paths are escaped per the demuxer's quoting rules.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		escaped := strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

// sanitizeFilename makes a title safe to use as a file name.
func sanitizeFilename(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(title))

	const maxLen = 120
	if len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}

// lastLine extracts the final non-empty line of ffmpeg's stderr, which
// carries the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
