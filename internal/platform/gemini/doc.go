// Package gemini implements script analysis and prompt rewriting on the
// Gemini API. The analyzer turns an input document into a storyboard; the
// rewriter softens prompts that a downstream provider rejected for a
// content-policy reason, falling back to a local sanitizer when the model
// itself is unavailable.
package gemini
