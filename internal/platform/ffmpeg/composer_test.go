package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatList(t *testing.T) {
	got := concatList([]string{"/tmp/a.mp4", "/tmp/b.mp4"})
	assert.Equal(t, "file '/tmp/a.mp4'\nfile '/tmp/b.mp4'\n", got)
}

func TestConcatListEscapesQuotes(t *testing.T) {
	got := concatList([]string{"/tmp/it's here.mp4"})
	assert.Equal(t, `file '/tmp/it'\''s here.mp4'`+"\n", got)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Chapter One", sanitizeFilename("Chapter One"))
	assert.Equal(t, "a_b_c", sanitizeFilename("a/b:c"))
	assert.Equal(t, "untitled", sanitizeFilename("   "))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 500)), 120)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "final error", lastLine("noise\nmore noise\nfinal error\n"))
	assert.Equal(t, "", lastLine(""))
}
