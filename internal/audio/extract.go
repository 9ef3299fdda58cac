package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// output encoding for ExtractAudio
type Options struct {
	Format     string // mp3, aac, flac or wav
	SampleRate int
	Channels   int
	Bitrate    string // lossy formats only, e.g. "64k"
}

// small mono mp3, enough for speech recognition uploads
func DefaultTranscriptionOptions() Options {
	return Options{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// ExtractAudio writes the audio track of inputPath, a video or another audio
// file, to outputPath re-encoded with opts.
func ExtractAudio(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := run(ctx, ffmpeg.Input(inputPath).Output(outputPath, extractArgs(opts))); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

func extractArgs(opts Options) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{"vn": ""}
	if opts.SampleRate > 0 {
		kwargs["ar"] = opts.SampleRate
	}
	if opts.Channels > 0 {
		kwargs["ac"] = opts.Channels
	}

	switch opts.Format {
	case "aac":
		kwargs["acodec"] = "aac"
	case "flac":
		kwargs["acodec"] = "flac"
	case "wav":
		kwargs["acodec"] = "pcm_s16le"
	default:
		kwargs["acodec"] = "libmp3lame"
	}
	if opts.Bitrate != "" && (opts.Format == "mp3" || opts.Format == "aac" || opts.Format == "") {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}
