package generation

import "context"

// ScriptAnalyzer breaks an input document into a storyboard of scenes.
type ScriptAnalyzer interface {
	// BreakdownScript analyzes the document text and returns a storyboard.
	// Scene numbers in the result are dense and start at 1.
	BreakdownScript(ctx context.Context, document string) (*Storyboard, error)

	// SummarizeChapter produces a short summary suitable for a video title.
	SummarizeChapter(ctx context.Context, document string) (string, error)
}

// PromptRewriter rewrites a prompt that a provider rejected for a
// content-policy reason. The attempt number (1-based) lets implementations
// escalate how aggressively they soften the prompt.
type PromptRewriter interface {
	Rewrite(ctx context.Context, original string, attempt int) (string, error)
}
