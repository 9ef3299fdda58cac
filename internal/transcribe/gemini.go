package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/ncestudy/nce/internal/lrc"
)

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// uploads the audio, asks for timed sentences and removes the upload again
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(buildGeminiPrompt(t.options)),
		genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	segments, err := parseGeminiTranscript(responseText(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	duration, _ := probeDuration(ctx, audioPath)

	return &Result{
		Segments: segments,
		Language: t.options.Language,
		Duration: duration,
	}, nil
}

func buildGeminiPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Transcribe this lesson recording sentence by sentence. ")
	sb.WriteString("For each sentence provide the start timestamp, end timestamp and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end' and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if opts.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. ", opts.Language)
	}
	if opts.Prompt != "" {
		sb.WriteString(opts.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

func parseGeminiTranscript(text string) ([]lrc.Segment, error) {
	if text == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}
	text = cleanJSONResponse(text)

	var raw []transcriptSegment
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, truncateString(text, 200))
	}

	segments := make([]lrc.Segment, 0, len(raw))
	for _, ts := range raw {
		segments = append(segments, lrc.Segment{
			Start: seconds(ts.Start),
			End:   seconds(ts.End),
			Text:  strings.TrimSpace(ts.Text),
		})
	}
	return segments, nil
}

// joined text parts of the first candidate that has any
func responseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	var text string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
		if text != "" {
			break
		}
	}
	return text
}
