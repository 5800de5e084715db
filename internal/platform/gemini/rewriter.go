package gemini

import (
	"context"
	"fmt"
	"strings"
)

// Rewrite instructions per attempt. Later attempts soften more aggressively.
const rewritePromptTemplate = `Rewrite the following visual description into a
version that is safe for media generation while preserving the core scene
and atmosphere.

Original description:
%s

Requirements:
1. Keep the essential content and mood of the scene.
2. Replace potentially sensitive elements with milder expressions.
3. %s
4. Keep the description vivid and visual.

Return only the rewritten description, without any explanation.`

var rewriteEscalations = []string{
	"Tone down intense wording while staying faithful to the scene.",
	"Add an artistic style framing (painterly, stylized) to abstract the scene.",
	"Generalize the scene into a broadly family-friendly depiction.",
}

// Rewriter implements generation.PromptRewriter on the same analyzer client.
// When the model call fails, a local sanitizer produces the rewrite instead,
// so a policy retry never dies on rewriter availability alone.
type Rewriter struct {
	analyzer *Analyzer
}

// NewRewriter creates a Rewriter sharing the analyzer's client and model.
func NewRewriter(analyzer *Analyzer) *Rewriter {
	return &Rewriter{analyzer: analyzer}
}

// Rewrite softens the original prompt for the given 1-based attempt number.
func (r *Rewriter) Rewrite(ctx context.Context, original string, attempt int) (string, error) {
	escalation := rewriteEscalations[len(rewriteEscalations)-1]
	if attempt >= 1 && attempt <= len(rewriteEscalations) {
		escalation = rewriteEscalations[attempt-1]
	}

	prompt := fmt.Sprintf(rewritePromptTemplate, original, escalation)

	text, err := generateWithRetry(ctx, r.analyzer.logger, r.analyzer.client,
		r.analyzer.model, prompt, r.analyzer.cfg)
	if err != nil {
		r.analyzer.logger.Warn("model rewrite unavailable, using local fallback",
			"attempt", attempt,
			"error", err)
		return fallbackRewrite(original, attempt), nil
	}

	rewritten := strings.TrimSpace(text)
	if rewritten == "" {
		return fallbackRewrite(original, attempt), nil
	}
	return rewritten, nil
}

// sensitiveReplacements maps charged wording to milder equivalents for the
// local fallback sanitizer.
var sensitiveReplacements = [][2]string{
	{"violent", "dramatic"},
	{"violence", "drama"},
	{"bloody", "intense"},
	{"blood", "red hues"},
	{"gore", "shadow"},
	{"battle", "confrontation"},
	{"fight", "standoff"},
	{"war", "historic conflict"},
	{"death", "stillness"},
	{"dead", "motionless"},
	{"kill", "defeat"},
	{"weapon", "prop"},
	{"gun", "prop"},
	{"knife", "tool"},
	{"naked", "draped in cloth"},
	{"nude", "draped in cloth"},
	{"terror", "tension"},
	{"horror", "suspense"},
}

// fallbackRewrite sanitizes the prompt without a model: it substitutes
// charged wording and layers on stronger softening framing per attempt.
func fallbackRewrite(original string, attempt int) string {
	rewritten := original
	for _, pair := range sensitiveReplacements {
		rewritten = replaceFold(rewritten, pair[0], pair[1])
	}

	switch {
	case attempt <= 1:
		return rewritten
	case attempt == 2:
		return "An artistic, stylized interpretation: " + rewritten
	default:
		return "A gentle, family-friendly illustration: " + rewritten
	}
}

// replaceFold replaces every case-insensitive occurrence of old with new.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}

	var b strings.Builder
	lower := strings.ToLower(s)
	lowerOld := strings.ToLower(old)
	for {
		i := strings.Index(lower, lowerOld)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(new)
		s = s[i+len(old):]
		lower = lower[i+len(lowerOld):]
	}
}
