package ffmpeg

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	EnvFFmpegPath  = "NCE_FFMPEG_PATH"
	EnvFFprobePath = "NCE_FFPROBE_PATH"
)

var ErrNotFound = errors.New("ffmpeg/ffprobe not found: install ffmpeg or set " + EnvFFmpegPath + " and " + EnvFFprobePath)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	resolveOnce  sync.Once
	resolveErr   error
	resolvedPath BinaryPaths
)

// Resolve locates ffmpeg and ffprobe once per process.
func Resolve() (BinaryPaths, error) {
	resolveOnce.Do(func() {
		resolvedPath, resolveErr = resolve(os.Getenv, exec.LookPath, cacheDir())
	})
	return resolvedPath, resolveErr
}

func FFmpegPath() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// resolve tries the environment, then PATH, then binaries dropped into the
// user cache directory.
func resolve(getenv func(string) string, lookPath func(string) (string, error), cache string) (BinaryPaths, error) {
	paths := BinaryPaths{
		FFmpeg:  getenv(EnvFFmpegPath),
		FFprobe: getenv(EnvFFprobePath),
	}

	if paths.FFmpeg == "" {
		paths.FFmpeg = find("ffmpeg", lookPath, cache)
	}
	if paths.FFprobe == "" {
		paths.FFprobe = find("ffprobe", lookPath, cache)
	}

	if paths.FFmpeg == "" || paths.FFprobe == "" {
		return BinaryPaths{}, ErrNotFound
	}
	return paths, nil
}

func find(name string, lookPath func(string) (string, error), cache string) string {
	if found, err := lookPath(name); err == nil {
		return found
	}
	if cache == "" {
		return ""
	}
	candidate := filepath.Join(cache, name+executableSuffix())
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

func cacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "nce", "ffmpeg", runtime.GOOS+"-"+runtime.GOARCH)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
