package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/generation"
	"github.com/reelforge/reelforge-api/internal/store"
	"github.com/reelforge/reelforge-api/internal/supervise"
)

// Progress checkpoints, one per completed stage. The runner records 1.0 when
// it marks the task completed, so the pipeline itself never reports it.
const (
	checkpointDocumentRead   = 0.1
	checkpointStoryboard     = 0.3
	checkpointAssets         = 0.6
	checkpointScenesComposed = 0.8
	checkpointMerged         = 0.9
)

// defaultSceneDurationSecs is used when neither the narration audio nor the
// storyboard carries a duration for a scene.
const defaultSceneDurationSecs = 5

// Composer assembles generated assets into playable video.
type Composer interface {
	// ComposeScene overlays a scene's narration audio onto its motion clip
	// and returns the path of the composed segment.
	ComposeScene(ctx context.Context, audioPath, videoPath string, durationSecs float64) (string, error)

	// Concat merges scene segments, in order, into the final video named
	// after the given title. Returns the output reference.
	Concat(ctx context.Context, segmentPaths []string, title string) (string, error)
}

// PollPolicies groups the per-operation-class polling bounds.
type PollPolicies struct {
	Speech supervise.PollPolicy
	Image  supervise.PollPolicy
	Video  supervise.PollPolicy
}

// DocumentToVideo is the pipeline for the document_to_video task kind.
//
// Stages run strictly in order and each persists its output before the next
// starts, so a retried task can always be replayed from the beginning
// without consulting partial state. Cancellation is checked between stages;
// an in-flight provider call runs to completion and its result is discarded.
type DocumentToVideo struct {
	tasks    store.TaskStore
	scenes   store.SceneStore
	source   DocumentSource
	analyzer generation.ScriptAnalyzer
	caller   *supervise.Caller
	speech   supervise.Operation
	image    supervise.Operation
	video    supervise.Operation
	composer Composer
	policies PollPolicies
	logger   *slog.Logger
}

// NewDocumentToVideo wires a pipeline instance. All dependencies are required.
func NewDocumentToVideo(
	tasks store.TaskStore,
	scenes store.SceneStore,
	source DocumentSource,
	analyzer generation.ScriptAnalyzer,
	caller *supervise.Caller,
	speech, image, video supervise.Operation,
	composer Composer,
	policies PollPolicies,
	logger *slog.Logger,
) *DocumentToVideo {
	return &DocumentToVideo{
		tasks:    tasks,
		scenes:   scenes,
		source:   source,
		analyzer: analyzer,
		caller:   caller,
		speech:   speech,
		image:    image,
		video:    video,
		composer: composer,
		policies: policies,
		logger:   logger,
	}
}

// Run executes all stages for the task and returns the final output
// reference. Any stage error is wrapped with the stage name and aborts the
// remaining stages. Returns domain.ErrTaskCancelled when it observes the
// task was cancelled between stages.
func (p *DocumentToVideo) Run(ctx context.Context, t *domain.Task) (string, error) {
	logger := p.logger.With("task_id", t.ID, "input_ref", t.InputRef)

	document, err := p.source.Read(ctx, t.InputRef)
	if err != nil {
		return "", fmt.Errorf("stage read_document: %w", err)
	}
	if err := p.checkpoint(ctx, t.ID, checkpointDocumentRead); err != nil {
		return "", err
	}

	storyboard, err := p.breakdown(ctx, t.ID, document)
	if err != nil {
		return "", fmt.Errorf("stage breakdown_script: %w", err)
	}
	if err := p.checkpoint(ctx, t.ID, checkpointStoryboard); err != nil {
		return "", err
	}
	logger.Info("storyboard persisted",
		"title", storyboard.Title,
		"scene_count", len(storyboard.Scenes))

	if err := p.generateAssets(ctx, t.ID); err != nil {
		return "", fmt.Errorf("stage generate_assets: %w", err)
	}
	if err := p.checkpoint(ctx, t.ID, checkpointAssets); err != nil {
		return "", err
	}

	segments, err := p.composeScenes(ctx, t.ID)
	if err != nil {
		return "", fmt.Errorf("stage compose_scenes: %w", err)
	}
	if err := p.checkpoint(ctx, t.ID, checkpointScenesComposed); err != nil {
		return "", err
	}

	outputRef, err := p.merge(ctx, document, storyboard, segments)
	if err != nil {
		return "", fmt.Errorf("stage merge_video: %w", err)
	}
	if err := p.checkpoint(ctx, t.ID, checkpointMerged); err != nil {
		return "", err
	}

	logger.Info("pipeline finished", "output_ref", outputRef)
	return outputRef, nil
}

// checkpoint records the stage boundary: it refuses to continue on a
// cancelled task and advances the persisted progress otherwise.
func (p *DocumentToVideo) checkpoint(ctx context.Context, taskID uuid.UUID, progress float64) error {
	t, err := p.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to reload task at checkpoint: %w", err)
	}
	if t.Status == domain.TaskStatusCancelled {
		return domain.ErrTaskCancelled
	}

	if err := p.tasks.UpdateProgress(ctx, taskID, progress); err != nil {
		// The task left running between the status check and the write,
		// which only cancellation can cause mid-pipeline.
		if errors.Is(err, store.ErrInvalidTransition) {
			return domain.ErrTaskCancelled
		}
		return fmt.Errorf("failed to record progress: %w", err)
	}
	return nil
}

// breakdown analyzes the document and persists the resulting storyboard as
// the task's scene rows.
func (p *DocumentToVideo) breakdown(ctx context.Context, taskID uuid.UUID, document string) (*generation.Storyboard, error) {
	storyboard, err := p.analyzer.BreakdownScript(ctx, document)
	if err != nil {
		return nil, err
	}
	if len(storyboard.Scenes) == 0 {
		return nil, fmt.Errorf("%w: storyboard has no scenes", generation.ErrInvalidResponse)
	}

	scenes := make([]*domain.Scene, 0, len(storyboard.Scenes))
	for i, script := range storyboard.Scenes {
		if script.Number != i+1 {
			return nil, fmt.Errorf("%w: scene numbers must be dense from 1, got %d at position %d",
				generation.ErrInvalidResponse, script.Number, i+1)
		}
		scene, err := domain.NewScene(taskID, script.Number, script.Description,
			script.Dialogue, script.SceneType, script.DurationSecs)
		if err != nil {
			return nil, fmt.Errorf("invalid scene %d: %w", script.Number, err)
		}
		scenes = append(scenes, scene)
	}

	if err := p.scenes.ReplaceForTask(ctx, taskID, scenes); err != nil {
		return nil, fmt.Errorf("failed to persist storyboard: %w", err)
	}
	return storyboard, nil
}

// generateAssets produces narration audio, a still image and a motion clip
// for every scene, in scene order, persisting each scene's asset references
// as soon as they are complete.
func (p *DocumentToVideo) generateAssets(ctx context.Context, taskID uuid.UUID) error {
	scenes, err := p.scenes.ListByTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to list scenes: %w", err)
	}

	for _, scene := range scenes {
		narration := scene.Dialogue
		if narration == "" {
			narration = scene.Description
		}

		audio, err := p.caller.Do(ctx, taskID, p.speech, supervise.Request{
			Prompt:      narration,
			SceneNumber: scene.Number,
		}, p.policies.Speech)
		if err != nil {
			return fmt.Errorf("scene %d narration: %w", scene.Number, err)
		}

		still, err := p.caller.Do(ctx, taskID, p.image, supervise.Request{
			Prompt:      scene.Description,
			SceneNumber: scene.Number,
		}, p.policies.Image)
		if err != nil {
			return fmt.Errorf("scene %d image: %w", scene.Number, err)
		}

		duration := audio.DurationSecs
		if duration <= 0 {
			duration = scene.DurationSecs
		}
		if duration <= 0 {
			duration = defaultSceneDurationSecs
		}

		clip, err := p.caller.Do(ctx, taskID, p.video, supervise.Request{
			Prompt:       scene.Description,
			SceneNumber:  scene.Number,
			DurationSecs: duration,
			ImagePath:    still.LocalPath,
		}, p.policies.Video)
		if err != nil {
			return fmt.Errorf("scene %d video: %w", scene.Number, err)
		}

		if err := p.scenes.SetAssets(ctx, taskID, scene.Number,
			audio.LocalPath, still.LocalPath, clip.LocalPath, duration); err != nil {
			return fmt.Errorf("failed to persist scene %d assets: %w", scene.Number, err)
		}

		p.logger.Debug("scene assets generated",
			"task_id", taskID,
			"scene_number", scene.Number,
			"duration_secs", duration)
	}
	return nil
}

// composeScenes overlays each scene's narration onto its motion clip and
// returns the segment paths in scene order.
func (p *DocumentToVideo) composeScenes(ctx context.Context, taskID uuid.UUID) ([]string, error) {
	scenes, err := p.scenes.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}

	segments := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		if !scene.AssetsComplete() {
			return nil, fmt.Errorf("scene %d has incomplete assets", scene.Number)
		}
		segment, err := p.composer.ComposeScene(ctx, scene.AudioPath, scene.VideoPath, scene.DurationSecs)
		if err != nil {
			return nil, fmt.Errorf("scene %d: %w", scene.Number, err)
		}
		segments = append(segments, segment)
	}
	return segments, nil
}

// merge concatenates the composed segments into the final video, titled
// from the storyboard or, failing that, a generated chapter summary.
func (p *DocumentToVideo) merge(ctx context.Context, document string, storyboard *generation.Storyboard, segments []string) (string, error) {
	title := storyboard.Title
	if title == "" {
		summary, err := p.analyzer.SummarizeChapter(ctx, document)
		if err != nil {
			p.logger.Warn("chapter summary unavailable, using fallback title", "error", err)
			summary = "untitled"
		}
		title = summary
	}

	outputRef, err := p.composer.Concat(ctx, segments, title)
	if err != nil {
		return "", err
	}
	return outputRef, nil
}
