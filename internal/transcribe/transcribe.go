package transcribe

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ncestudy/nce/internal/audio"
	"github.com/ncestudy/nce/internal/lrc"
)

// transcription result
type Result struct {
	Segments []lrc.Segment
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// transcription options
type Options struct {
	Language string // spoken language of the audio
	Model    string
	Prompt   string
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// ToLesson turns a transcription into a lesson. Segments are ordered by
// start, empty ones are dropped and ends are chained to the next start the
// way a parsed LRC file would have them.
func ToLesson(result *Result, meta lrc.Metadata) *lrc.Lesson {
	lesson := &lrc.Lesson{Metadata: meta}
	if result == nil {
		return lesson
	}

	for _, seg := range result.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		lesson.Segments = append(lesson.Segments, seg)
	}
	sort.SliceStable(lesson.Segments, func(i, j int) bool {
		return lesson.Segments[i].Start < lesson.Segments[j].Start
	})
	lrc.ChainEnds(lesson.Segments)
	return lesson
}

// probes the media length; replaced in tests
var probeDuration = audio.GetDuration

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
