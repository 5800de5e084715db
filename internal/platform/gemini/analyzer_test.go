package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge-api/internal/generation"
)

func TestParseStoryboardDirectJSON(t *testing.T) {
	text := `{
		"title": "The Harbor",
		"summary": "A town wakes.",
		"scenes": [
			{"scene_number": 1, "scene_description": "misty harbor", "dialogue": "The ships slept.", "duration": 12, "scene_type": "exterior"},
			{"scene_number": 2, "scene_description": "market street", "dialogue": "Noon came.", "duration": 8, "scene_type": "exterior"}
		]
	}`

	storyboard, err := parseStoryboard(text)
	require.NoError(t, err)
	assert.Equal(t, "The Harbor", storyboard.Title)
	require.Len(t, storyboard.Scenes, 2)
	assert.Equal(t, 1, storyboard.Scenes[0].Number)
	assert.Equal(t, "misty harbor", storyboard.Scenes[0].Description)
	assert.Equal(t, float64(12), storyboard.Scenes[0].DurationSecs)
}

func TestParseStoryboardExtractsFromProse(t *testing.T) {
	text := "Here is your storyboard:\n```json\n" +
		`{"title": "T", "scenes": [{"scene_number": 1, "scene_description": "d", "dialogue": ""}]}` +
		"\n```\nLet me know if you need changes."

	storyboard, err := parseStoryboard(text)
	require.NoError(t, err)
	assert.Equal(t, "T", storyboard.Title)
	require.Len(t, storyboard.Scenes, 1)
}

func TestParseStoryboardNoJSON(t *testing.T) {
	_, err := parseStoryboard("I could not produce a storyboard for this input.")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestParseStoryboardEmptyScenes(t *testing.T) {
	_, err := parseStoryboard(`{"title": "Empty", "scenes": []}`)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestExtractJSONObject(t *testing.T) {
	got, ok := extractJSONObject(`prefix {"a": {"b": 1}} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, ok = extractJSONObject("no braces here")
	assert.False(t, ok)

	_, ok = extractJSONObject("} reversed {")
	assert.False(t, ok)
}

func TestFallbackRewriteSubstitutesChargedWording(t *testing.T) {
	got := fallbackRewrite("A bloody battle with weapons everywhere", 1)
	assert.NotContains(t, got, "bloody")
	assert.NotContains(t, got, "battle")
	assert.NotContains(t, got, "weapon")
	assert.Contains(t, got, "confrontation")
}

func TestFallbackRewriteEscalatesPerAttempt(t *testing.T) {
	first := fallbackRewrite("a violent storm", 1)
	second := fallbackRewrite("a violent storm", 2)
	third := fallbackRewrite("a violent storm", 3)

	assert.NotContains(t, first, "artistic")
	assert.Contains(t, second, "artistic, stylized")
	assert.Contains(t, third, "family-friendly")

	// The substitution applies at every level.
	for _, s := range []string{first, second, third} {
		assert.NotContains(t, s, "violent")
	}
}

func TestReplaceFoldIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "a dramatic and dramatic scene",
		replaceFold("a Violent and VIOLENT scene", "violent", "dramatic"))
	assert.Equal(t, "unchanged", replaceFold("unchanged", "", "x"))
}
