// Package generation provides interfaces and shared types for interacting
// with external AI services: script breakdown, narration synthesis, image
// and video synthesis, and prompt rewriting. It abstracts the details of
// provider integration so the pipeline never couples to a specific vendor,
// and defines the error taxonomy that separates semantic policy rejections
// from transient infrastructure faults.
package generation
