package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/audio"
	"github.com/ncestudy/nce/internal/lesson"
	"github.com/ncestudy/nce/internal/lrc"
	"github.com/ncestudy/nce/internal/media"
	"github.com/ncestudy/nce/internal/player"
	"github.com/ncestudy/nce/internal/progress"
	"github.com/ncestudy/nce/internal/subtitle"
)

// extra time after the last sentence when the recording length is unknown
const unknownTail = 3 * time.Second

var followCmd = &cobra.Command{
	Use:   "follow [lesson_file]",
	Short: "Follow a lesson sentence by sentence",
	Long: `Run the sentence player over a lesson and print every sentence as it
becomes current. Progress is saved to the progress file as you go.

The lesson clock runs in real time at the chosen rate. With --keys, lines
typed on stdin control playback:
  <enter>/n  next sentence      b  previous sentence
  r          repeat sentence    p  pause or resume
  s          toggle single mode l  cycle loop mode
  + / -      faster / slower    q  quit

Examples:
  nce follow "NCE1/001&002-Excuse Me.lrc"
  nce follow lesson.lrc --mode single --loop one --keys
  nce follow lesson.lrc --rate 1.5 --start 4 --auto-next`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

func init() {
	rootCmd.AddCommand(followCmd)

	followCmd.Flags().
		StringP("audio", "a", "", "Lesson recording used for its length (default: <lesson>.mp3)")
	followCmd.Flags().
		String("mode", "", "Read mode: continuous or single (default from config)")
	followCmd.Flags().
		String("loop", "", "Loop mode: none, one or all (default from config)")
	followCmd.Flags().
		Float64("rate", 0, "Playback rate (default from config)")
	followCmd.Flags().
		Int("start", 0, "Index of the first sentence")
	followCmd.Flags().
		Bool("auto-next", false, "Continue with the next lesson of the book")
	followCmd.Flags().
		Duration("duration", 0, "Recording length when there is no audio to probe")
	followCmd.Flags().
		Bool("keys", false, "Read playback commands from stdin")
}

type followOptions struct {
	settings  player.Settings
	threshold time.Duration
	audioPath string
	duration  time.Duration
	start     int
}

// how a lesson run stopped
type followOutcome int

const (
	outcomeFinished followOutcome = iota
	outcomeQuit
	outcomeInterrupted
)

func runFollow(cmd *cobra.Command, args []string) error {
	opts, autoNext, err := followFlags(cmd)
	if err != nil {
		return err
	}
	keys, _ := cmd.Flags().GetBool("keys")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := progress.Open(cfg.ProgressFile)
	if err != nil {
		logger.Warnw("Progress will not be saved", "error", err)
		store = nil
	}

	var commands <-chan string
	if keys {
		commands = readCommands(cmd.InOrStdin())
	}

	out := &syncWriter{w: cmd.OutOrStdout()}
	path := args[0]
	for {
		outcome, err := followLesson(ctx, out, path, opts, store, commands)
		if err != nil {
			return err
		}
		if outcome != outcomeFinished || !autoNext {
			return nil
		}

		next, ok, err := nextLesson(path)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "-- last lesson of the book --")
			return nil
		}
		logger.Infow("Moving to next lesson", "lesson", next.Name)
		path = next.Path
		opts.audioPath = ""
		opts.duration = 0
		opts.start = 0
	}
}

func followFlags(cmd *cobra.Command) (followOptions, bool, error) {
	opts := followOptions{
		settings:  cfg.PlayerSettings(),
		threshold: cfg.Playback.TerminalThreshold,
	}
	autoNext := cfg.Playback.AutoNext

	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		single, err := player.ParseReadMode(mode)
		if err != nil {
			return opts, false, err
		}
		opts.settings.SingleSentence = single
	}
	if flags.Changed("loop") {
		s, _ := flags.GetString("loop")
		loop, err := player.ParseLoopMode(s)
		if err != nil {
			return opts, false, err
		}
		opts.settings.Loop = loop
	}
	if flags.Changed("rate") {
		rate, _ := flags.GetFloat64("rate")
		if !(rate > 0) || rate > 4 {
			return opts, false, fmt.Errorf("rate %.2f out of range (0, 4]", rate)
		}
		opts.settings.Rate = rate
	}
	if flags.Changed("auto-next") {
		autoNext, _ = flags.GetBool("auto-next")
	}

	opts.audioPath, _ = flags.GetString("audio")
	opts.duration, _ = flags.GetDuration("duration")
	opts.start, _ = flags.GetInt("start")
	if opts.duration < 0 {
		return opts, false, fmt.Errorf("duration must not be negative")
	}
	return opts, autoNext, nil
}

func followLesson(
	ctx context.Context,
	out io.Writer,
	path string,
	opts followOptions,
	store *progress.Store,
	commands <-chan string,
) (followOutcome, error) {
	l, err := subtitle.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to parse lesson: %w", err)
	}
	if len(l.Segments) == 0 {
		return 0, fmt.Errorf("lesson contains no sentences: %s", path)
	}
	if opts.start < 0 || opts.start >= len(l.Segments) {
		return 0, fmt.Errorf("start %d out of range [0, %d)", opts.start, len(l.Segments))
	}

	tl := media.NewTimeline(nil)
	defer tl.Close()
	tl.LoadMetadata(lessonDuration(ctx, path, l, opts))

	p := player.New(tl, l.Segments,
		player.WithSettings(opts.settings),
		player.WithLogger(logger),
		player.WithTerminalThreshold(opts.threshold),
	)
	defer p.Destroy()

	finished := make(chan struct{}, 1)
	ended := make(chan struct{}, 1)
	notify := func(ch chan struct{}) player.Listener {
		return func(player.Event) {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}

	p.On(player.EventSegmentChanged, func(ev player.Event) {
		sc := ev.(player.SegmentChanged)
		fmt.Fprint(out, formatSentence(sc.Index, sc.Segment))
	})
	p.On(player.EventSegmentCleared, func(player.Event) {
		fmt.Fprintln(out, "-- cleared --")
	})
	p.On(player.EventPlayerReset, func(player.Event) {
		fmt.Fprintln(out, "-- reset --")
	})
	p.On(player.EventError, func(ev player.Event) {
		e := ev.(player.Error)
		logger.Warnw("Playback error", "message", e.Message, "error", e.Err)
	})
	p.On(player.EventLessonEnded, notify(finished))
	p.On(player.EventEnded, notify(ended))

	if store != nil {
		rec := progress.Record(store, lessonKey(path), p, tl.Duration,
			progress.WithRecorderLogger(logger))
		defer rec.Stop()
	}

	if title := l.Metadata.Title; title != "" {
		fmt.Fprintf(out, "== %s ==\n", title)
	}
	p.PlaySegment(ctx, opts.start, true)

	for {
		select {
		case <-ctx.Done():
			return outcomeInterrupted, nil
		case <-finished:
			return outcomeFinished, nil
		case <-ended:
			// the recording ran out before the last advance fired
			if p.Settings().Loop == player.LoopRepeatAll {
				p.PlaySegment(ctx, 0, false)
				continue
			}
			return outcomeFinished, nil
		case c, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if quit := handleCommand(ctx, out, p, tl, c); quit {
				return outcomeQuit, nil
			}
		}
	}
}

// handleCommand applies one stdin command and reports whether to quit.
func handleCommand(ctx context.Context, out io.Writer, p *player.Player, tl *media.Timeline, c string) bool {
	current := max(p.CurrentIndex(), 0)

	switch strings.TrimSpace(c) {
	case "", "n":
		p.PlaySegment(ctx, current+1, true)
	case "b":
		p.PlaySegment(ctx, max(current-1, 0), true)
	case "r":
		p.PlaySegment(ctx, current, true)
	case "p":
		if tl.Paused() {
			p.PlaySegment(ctx, current, true)
		} else {
			p.Pause()
		}
	case "s":
		single := !p.Settings().SingleSentence
		p.SetSingleSentenceMode(single)
		fmt.Fprintf(out, "-- single sentence: %t --\n", single)
	case "l":
		next := (p.Settings().Loop + 1) % 3
		p.SetLoopMode(next)
		fmt.Fprintf(out, "-- loop: %s --\n", next)
	case "+":
		p.SetPlaybackRate(min(p.Settings().Rate+0.25, 4))
	case "-":
		p.SetPlaybackRate(max(p.Settings().Rate-0.25, 0.25))
	case "q":
		return true
	default:
		fmt.Fprintf(out, "-- unknown command %q --\n", c)
	}
	return false
}

// lessonDuration prefers the probed recording length, then the --duration
// flag, then the last sentence plus a short tail.
func lessonDuration(ctx context.Context, path string, l *lrc.Lesson, opts followOptions) time.Duration {
	if opts.duration > 0 {
		return opts.duration
	}

	audioPath := opts.audioPath
	if audioPath == "" {
		audioPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
	}
	if _, err := os.Stat(audioPath); err == nil {
		d, err := audio.GetDuration(ctx, audioPath)
		if err == nil && d > 0 {
			return d
		}
		logger.Warnw("Could not probe audio length", "audio", audioPath, "error", err)
	}

	last := l.Segments[len(l.Segments)-1]
	if last.HasEnd() {
		return last.End
	}
	return last.Start + unknownTail
}

// progress key from the book directory and the file name
func lessonKey(path string) string {
	book := filepath.Base(filepath.Dir(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return progress.Key(book, name)
}

// the lesson file's directory is a book inside a library root; a file
// outside any library has no next lesson
func nextLesson(path string) (lesson.Entry, bool, error) {
	bookDir := filepath.Dir(path)
	lib := lesson.NewLibrary(filepath.Dir(bookDir))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	next, ok, err := lib.Next(filepath.Base(bookDir), name)
	if errors.Is(err, lesson.ErrNotFound) {
		return lesson.Entry{}, false, nil
	}
	return next, ok, err
}

func readCommands(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

// listeners print from timer goroutines
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
