package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ncestudy/nce/internal/lrc"
)

const defaultClipConcurrency = 4

// one sentence cut out of a lesson recording
type Clip struct {
	Index int
	Path  string
	Start time.Duration
	End   time.Duration
}

type clipJob struct {
	Clip
}

// ClipSegments cuts one file per segment out of audioPath into outDir. An
// open last segment runs to the end of the recording. Clips come back in
// segment order.
func ClipSegments(ctx context.Context, audioPath string, segments []lrc.Segment, outDir string, concurrency int) ([]Clip, error) {
	if concurrency <= 0 {
		concurrency = defaultClipConcurrency
	}
	if len(segments) == 0 {
		return nil, nil
	}

	total, err := GetDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := planClips(audioPath, segments, outDir, total)

	var (
		mu       sync.Mutex
		clips    []Clip
		firstErr error
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed {
			break
		}

		wg.Add(1)
		go func(j clipJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed || ctx.Err() != nil {
				return
			}

			kwargs := ffmpeg.KwArgs{
				"ss": j.Start.Seconds(),
				"t":  (j.End - j.Start).Seconds(),
				"c":  "copy",
			}
			err := run(ctx, ffmpeg.Input(audioPath).Output(j.Path, kwargs))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to clip segment %d: %w", j.Index, err)
				}
				return
			}
			clips = append(clips, j.Clip)
		}(job)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(clips, func(i, j int) bool {
		return clips[i].Index < clips[j].Index
	})
	return clips, nil
}

// planClips decides the time range and file name of each clip, skipping
// segments with nothing to cut.
func planClips(audioPath string, segments []lrc.Segment, outDir string, total time.Duration) []clipJob {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)

	var jobs []clipJob
	for i, seg := range segments {
		end := seg.End
		if !seg.HasEnd() || (total > 0 && end > total) {
			end = total
		}
		if end <= seg.Start {
			continue
		}
		jobs = append(jobs, clipJob{Clip{
			Index: i,
			Path:  filepath.Join(outDir, fmt.Sprintf("%s_%03d%s", base, i+1, ext)),
			Start: seg.Start,
			End:   end,
		}})
	}
	return jobs
}

// RemoveClips deletes clip files, ignoring ones already gone.
func RemoveClips(clips []Clip) error {
	var lastErr error
	for _, c := range clips {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
