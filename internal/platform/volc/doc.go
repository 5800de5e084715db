// Package volc is the client for the Volcengine-style media generation API:
// speech synthesis, image generation and image-to-video animation. Requests
// are HMAC-SHA256 signed. Speech and image calls answer synchronously;
// video generation is asynchronous and exposed as a supervised operation
// with a poll handle. Provider errors are classified into the generation
// error taxonomy so callers never match on message strings.
package volc
