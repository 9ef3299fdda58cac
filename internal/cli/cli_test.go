package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncestudy/nce/internal/progress"
)

const excuseMe = "[ti:Excuse me!]\n[00:01.00]Excuse me! | 对不起！\n[00:03.00]Yes?\n"

// resetFlags undoes flag values left behind by an earlier Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config", tempConfig(t)}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

// config that keeps progress out of the working directory
func tempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, filepath.Join(dir, "nce.yaml"),
		"progress_file: "+filepath.Join(dir, "progress.yaml")+"\n")
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveAPIKey(t *testing.T) {
	env := map[string]string{"OPENAI_API_KEY": "sk-env"}
	getenv := func(k string) string { return env[k] }

	key, err := resolveAPIKey("openai", "sk-flag", getenv)
	require.NoError(t, err)
	assert.Equal(t, "sk-flag", key)

	key, err = resolveAPIKey("openai", "", getenv)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)

	_, err = resolveAPIKey("gemini", "", getenv)
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = resolveAPIKey("whisper", "", getenv)
	assert.Error(t, err)
}

func TestParseText(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lesson.lrc"), excuseMe)

	out, err := execute(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Title: Excuse me!")
	assert.Contains(t, out, "  0 [00:01.00] Excuse me!\n")
	assert.Contains(t, out, "对不起！")
	assert.Contains(t, out, "  1 [00:03.00] Yes?\n")
}

func TestParseJSON(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lesson.lrc"), excuseMe)

	out, err := execute(t, "parse", path, "--json")
	require.NoError(t, err)

	var got lessonOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Excuse me!", got.Metadata.Title)
	require.Len(t, got.Sentences, 2)
	assert.Equal(t, sentenceJSON{Index: 0, Start: 1, End: 3, Text: "Excuse me!", Translation: "对不起！"}, got.Sentences[0])
}

func TestParseMissingFile(t *testing.T) {
	_, err := execute(t, "parse", filepath.Join(t.TempDir(), "missing.lrc"))
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "lesson.lrc"), excuseMe)
	dst := filepath.Join(dir, "lesson.srt")

	_, err := execute(t, "convert", src, "-o", dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t,
		"1\n00:00:01,000 --> 00:00:03,000\nExcuse me!\n对不起！\n\n"+
			"2\n00:00:03,000 --> 00:00:05,000\nYes?\n\n",
		string(data))

	_, err = execute(t, "convert", src, "-o", filepath.Join(dir, "lesson.ass"))
	assert.Error(t, err)
}

func TestTranslateRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	path := writeFile(t, filepath.Join(t.TempDir(), "lesson.lrc"), excuseMe)

	_, err := execute(t, "translate", path, "-t", "Chinese", "--provider", "gemini")
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	_, err = execute(t, "translate", path, "-t", "english", "--api-key", "x")
	assert.ErrorContains(t, err, "cannot be the same")
}

func TestExtractRejectsFormat(t *testing.T) {
	_, err := execute(t, "extract", "lesson.mp4", "--format", "ogg")
	assert.ErrorContains(t, err, "invalid format")
}

func TestFollowRunsLessonAndMovesOn(t *testing.T) {
	root := t.TempDir()
	first := writeFile(t, filepath.Join(root, "NCE1", "001-One.lrc"), "[ti:One]\n[00:00.00]One\n[00:00.30]Two\n")
	writeFile(t, filepath.Join(root, "NCE1", "002-Two.lrc"), "[00:00.00]Three\n")

	progressPath := filepath.Join(t.TempDir(), "progress.yaml")
	configPath := writeFile(t, filepath.Join(t.TempDir(), "nce.yaml"),
		"progress_file: "+progressPath+"\n")

	out, err := execute(t, "--config", configPath,
		"follow", first, "--duration", "600ms", "--rate", "4", "--auto-next")
	require.NoError(t, err, out)

	assert.Contains(t, out, "== One ==")
	assert.Contains(t, out, "  0 [00:00.00] One\n")
	assert.Contains(t, out, "  1 [00:00.30] Two\n")
	assert.Contains(t, out, "  0 [00:00.00] Three\n")
	assert.Contains(t, out, "-- last lesson of the book --")
	assert.Less(t, strings.Index(out, "Two"), strings.Index(out, "Three"))

	store, err := progress.Open(progressPath)
	require.NoError(t, err)
	entry, ok := store.Get("NCE1/001-One")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Index)
	assert.Equal(t, 50, entry.Percentage)
	_, ok = store.Get("NCE1/002-Two")
	assert.True(t, ok)
}

func TestFollowQuitsOnCommand(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lesson.lrc"), excuseMe)

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader("s\nq\n"))
	rootCmd.SetArgs([]string{
		"--config", tempConfig(t),
		"follow", path, "--keys", "--duration", "1m",
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "-- single sentence: true --")
}

func TestFollowRejectsBadFlags(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "lesson.lrc"), excuseMe)

	_, err := execute(t, "follow", path, "--loop", "twice")
	assert.Error(t, err)

	_, err = execute(t, "follow", path, "--rate", "9")
	assert.Error(t, err)

	_, err = execute(t, "follow", path, "--start", "5", "--duration", "1s")
	assert.ErrorContains(t, err, "out of range")
}

func TestLessonKey(t *testing.T) {
	assert.Equal(t, "NCE1/001&002-Excuse Me", lessonKey(filepath.Join("content", "NCE1", "001&002-Excuse Me.lrc")))
}
