package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncestudy/nce/internal/lrc"
)

func TestFactory(t *testing.T) {
	ctx := context.Background()

	tr, err := Factory(ctx, ProviderGemini, "fake-key", Options{})
	require.NoError(t, err)
	assert.IsType(t, &GeminiTranscriber{}, tr)

	tr, err = Factory(ctx, ProviderOpenAI, "fake-key", Options{})
	require.NoError(t, err)
	assert.IsType(t, &OpenAITranscriber{}, tr)

	_, err = Factory(ctx, Provider("whisper"), "fake-key", Options{})
	assert.Error(t, err)

	_, err = Factory(ctx, ProviderOpenAI, "", Options{})
	assert.Error(t, err)
}

func TestOpenAIDefaultModel(t *testing.T) {
	tr, err := NewOpenAITranscriber(context.Background(), "fake-key", Options{})
	require.NoError(t, err)
	assert.Equal(t, "whisper-1", tr.model)
}

func TestTranscribeMissingFile(t *testing.T) {
	tr, err := NewOpenAITranscriber(context.Background(), "fake-key", Options{})
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorContains(t, err, "audio file not found")
}

func TestBuildGeminiPrompt(t *testing.T) {
	prompt := buildGeminiPrompt(Options{Language: "English", Prompt: "Speakers are teacher and student."})
	assert.Contains(t, prompt, "The audio is in English.")
	assert.Contains(t, prompt, "Speakers are teacher and student.")
	assert.Contains(t, prompt, "JSON array")
}

func TestParseGeminiTranscript(t *testing.T) {
	text := "```json\n[{\"start\": 1.5, \"end\": 2.25, \"text\": \" Excuse me! \"}, {\"start\": 2.25, \"end\": 3, \"text\": \"Yes?\"}]\n```"

	segments, err := parseGeminiTranscript(text)
	require.NoError(t, err)
	assert.Equal(t, []lrc.Segment{
		{Start: 1500 * time.Millisecond, End: 2250 * time.Millisecond, Text: "Excuse me!"},
		{Start: 2250 * time.Millisecond, End: 3 * time.Second, Text: "Yes?"},
	}, segments)

	_, err = parseGeminiTranscript("")
	assert.Error(t, err)

	_, err = parseGeminiTranscript("I could not hear anything.")
	assert.ErrorContains(t, err, "failed to parse JSON response")
}

func TestParseVerboseJSON(t *testing.T) {
	raw := `{"text": "Excuse me! Yes?", "language": "english", "duration": 4.0,
		"segments": [
			{"start": 0.5, "end": 1.8, "text": " Excuse me!"},
			{"start": 1.8, "end": 1.9, "text": "  "},
			{"start": 2.0, "end": 3.5, "text": "Yes?"}
		]}`

	segments, err := parseVerboseJSON(raw, 0)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Excuse me!", segments[0].Text)
	assert.Equal(t, 500*time.Millisecond, segments[0].Start)
	assert.Equal(t, 3500*time.Millisecond, segments[1].End)
}

func TestParseVerboseJSONWithoutSegments(t *testing.T) {
	segments, err := parseVerboseJSON(`{"text": "Excuse me!", "duration": 2.5}`, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []lrc.Segment{{End: 2500 * time.Millisecond, Text: "Excuse me!"}}, segments)

	segments, err = parseVerboseJSON(`{"text": "Excuse me!"}`, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, segments[0].End)

	_, err = parseVerboseJSON(`{"text": ""}`, 0)
	assert.Error(t, err)

	_, err = parseVerboseJSON("", 0)
	assert.Error(t, err)
}

func TestToLesson(t *testing.T) {
	result := &Result{
		Duration: 10 * time.Second,
		Segments: []lrc.Segment{
			{Start: 3 * time.Second, End: 4 * time.Second, Text: "Yes?"},
			{Start: time.Second, End: 2 * time.Second, Text: " Excuse me! "},
			{Start: 5 * time.Second, Text: " "},
			{Start: 6 * time.Second, End: 8 * time.Second, Text: "Is this your handbag?"},
		},
	}

	lesson := ToLesson(result, lrc.Metadata{Title: "Excuse me!"})
	assert.Equal(t, "Excuse me!", lesson.Metadata.Title)
	assert.Equal(t, []lrc.Segment{
		{Start: time.Second, End: 3 * time.Second, Text: "Excuse me!"},
		{Start: 3 * time.Second, End: 6 * time.Second, Text: "Yes?"},
		{Start: 6 * time.Second, Text: "Is this your handbag?"},
	}, lesson.Segments)

	assert.Empty(t, ToLesson(nil, lrc.Metadata{}).Segments)
}

// runs only with OPENAI_API_KEY and NCE_TEST_AUDIO set
func TestOpenAITranscriberIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	audioPath := os.Getenv("NCE_TEST_AUDIO")
	if apiKey == "" || audioPath == "" {
		t.Skip("OPENAI_API_KEY or NCE_TEST_AUDIO not set; skipping integration test")
	}

	tr, err := NewOpenAITranscriber(context.Background(), apiKey, Options{Language: "en"})
	require.NoError(t, err)

	result, err := tr.Transcribe(context.Background(), audioPath)
	require.NoError(t, err)
	assert.NotEmpty(t, ToLesson(result, lrc.Metadata{}).Segments)
}
