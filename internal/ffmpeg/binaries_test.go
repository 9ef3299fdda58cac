package ffmpeg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noPath(string) (string, error) { return "", errors.New("not in PATH") }

func TestResolvePrefersEnvironment(t *testing.T) {
	env := map[string]string{
		EnvFFmpegPath:  "/opt/ff/ffmpeg",
		EnvFFprobePath: "/opt/ff/ffprobe",
	}
	lookPath := func(name string) (string, error) { return "/usr/bin/" + name, nil }

	paths, err := resolve(func(k string) string { return env[k] }, lookPath, "")
	require.NoError(t, err)
	assert.Equal(t, BinaryPaths{FFmpeg: "/opt/ff/ffmpeg", FFprobe: "/opt/ff/ffprobe"}, paths)
}

func TestResolveFallsBackToPath(t *testing.T) {
	env := map[string]string{EnvFFmpegPath: "/opt/ff/ffmpeg"}
	lookPath := func(name string) (string, error) { return "/usr/bin/" + name, nil }

	paths, err := resolve(func(k string) string { return env[k] }, lookPath, "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ff/ffmpeg", paths.FFmpeg)
	assert.Equal(t, "/usr/bin/ffprobe", paths.FFprobe)
}

func TestResolveUsesCacheDir(t *testing.T) {
	cache := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		require.NoError(t, os.WriteFile(filepath.Join(cache, name+executableSuffix()), []byte("bin"), 0o755))
	}

	paths, err := resolve(func(string) string { return "" }, noPath, cache)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "ffmpeg"+executableSuffix()), paths.FFmpeg)
}

func TestResolveNotFound(t *testing.T) {
	_, err := resolve(func(string) string { return "" }, noPath, t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}
