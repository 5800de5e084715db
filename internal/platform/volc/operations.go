package volc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/reelforge/reelforge-api/internal/generation"
	"github.com/reelforge/reelforge-api/internal/supervise"
)

// SpeechOperation synthesizes narration audio. The provider answers
// synchronously, so Start always returns a terminal outcome.
type SpeechOperation struct {
	client *Client
}

// NewSpeechOperation creates the speech synthesis operation.
func NewSpeechOperation(client *Client) *SpeechOperation {
	return &SpeechOperation{client: client}
}

func (o *SpeechOperation) Name() string { return "synthesize_speech" }

type speechResponse struct {
	AudioData    string  `json:"audio_data"`
	AudioURL     string  `json:"audio_url"`
	DurationSecs float64 `json:"duration"`
}

func (o *SpeechOperation) Start(ctx context.Context, req supervise.Request) (*supervise.Outcome, error) {
	var resp speechResponse
	err := o.client.do(ctx, http.MethodPost, "/tts/v1/synthesize", map[string]any{
		"text": req.Prompt,
	}, &resp)
	if err != nil {
		return nil, err
	}

	artifact, err := o.client.saveArtifact(ctx, resp.AudioData, resp.AudioURL,
		"audio", ".mp3", req.SceneNumber, resp.DurationSecs)
	if err != nil {
		return nil, err
	}

	return &supervise.Outcome{
		State:    generation.OpStateSucceeded,
		Artifact: artifact,
	}, nil
}

func (o *SpeechOperation) Status(_ context.Context, handle string) (*supervise.Outcome, error) {
	return nil, fmt.Errorf("%w: speech synthesis has no poll handle (%q)",
		generation.ErrProviderFailed, handle)
}

// ImageOperation generates a scene still. Synchronous, like speech.
type ImageOperation struct {
	client *Client
}

// NewImageOperation creates the image generation operation.
func NewImageOperation(client *Client) *ImageOperation {
	return &ImageOperation{client: client}
}

func (o *ImageOperation) Name() string { return "generate_image" }

type imageResponse struct {
	ImageData string `json:"image_data"`
	ImageURL  string `json:"image_url"`
}

func (o *ImageOperation) Start(ctx context.Context, req supervise.Request) (*supervise.Outcome, error) {
	var resp imageResponse
	err := o.client.do(ctx, http.MethodPost, "/image/v1/generate", map[string]any{
		"prompt": req.Prompt,
	}, &resp)
	if err != nil {
		return nil, err
	}

	artifact, err := o.client.saveArtifact(ctx, resp.ImageData, resp.ImageURL,
		"image", ".png", req.SceneNumber, 0)
	if err != nil {
		return nil, err
	}

	return &supervise.Outcome{
		State:    generation.OpStateSucceeded,
		Artifact: artifact,
	}, nil
}

func (o *ImageOperation) Status(_ context.Context, handle string) (*supervise.Outcome, error) {
	return nil, fmt.Errorf("%w: image generation has no poll handle (%q)",
		generation.ErrProviderFailed, handle)
}

// VideoOperation animates a still into a motion clip. The provider accepts
// the submission and reports progress through a task handle that Status
// polls until a terminal state.
type VideoOperation struct {
	client *Client
}

// NewVideoOperation creates the image-to-video operation.
func NewVideoOperation(client *Client) *VideoOperation {
	return &VideoOperation{client: client}
}

func (o *VideoOperation) Name() string { return "generate_video" }

type videoSubmitResponse struct {
	TaskID string `json:"task_id"`
}

type videoStatusResponse struct {
	Status       string  `json:"status"`
	VideoData    string  `json:"video_data"`
	VideoURL     string  `json:"video_url"`
	DurationSecs float64 `json:"duration"`
	Code         string  `json:"code"`
	Message      string  `json:"message"`
}

func (o *VideoOperation) Start(ctx context.Context, req supervise.Request) (*supervise.Outcome, error) {
	var resp videoSubmitResponse
	err := o.client.do(ctx, http.MethodPost, "/video/v1/submit", map[string]any{
		"prompt":     req.Prompt,
		"image_path": req.ImagePath,
		"duration":   req.DurationSecs,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.TaskID == "" {
		return nil, fmt.Errorf("%w: submit response missing task handle",
			generation.ErrInvalidResponse)
	}

	return &supervise.Outcome{
		State:  generation.OpStateQueued,
		Handle: resp.TaskID,
	}, nil
}

func (o *VideoOperation) Status(ctx context.Context, handle string) (*supervise.Outcome, error) {
	var resp videoStatusResponse
	err := o.client.do(ctx, http.MethodGet, "/video/v1/task/"+handle, nil, &resp)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case "queued", "pending":
		return &supervise.Outcome{State: generation.OpStateQueued, Handle: handle}, nil

	case "running", "processing":
		return &supervise.Outcome{State: generation.OpStateRunning, Handle: handle}, nil

	case "completed", "success":
		artifact, err := o.client.saveArtifact(ctx, resp.VideoData, resp.VideoURL,
			"video", ".mp4", 0, resp.DurationSecs)
		if err != nil {
			return nil, err
		}
		return &supervise.Outcome{
			State:    generation.OpStateSucceeded,
			Artifact: artifact,
		}, nil

	case "failed", "error":
		return nil, classifyTerminalFailure(resp.Code, resp.Message)

	case "cancelled":
		return &supervise.Outcome{State: generation.OpStateCancelled, Message: resp.Message}, nil

	default:
		return nil, fmt.Errorf("%w: unknown task status %q",
			generation.ErrInvalidResponse, resp.Status)
	}
}
