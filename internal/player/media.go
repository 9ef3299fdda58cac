package player

import (
	"context"
	"fmt"
	"time"
)

// Media is the playback handle the player drives. While attached, callers
// must go through the player instead of moving position, rate or pause
// state directly, or the player's segment state drifts from the handle.
type Media interface {
	Position() time.Duration
	SetPosition(pos time.Duration)
	// zero while metadata is not loaded
	Duration() time.Duration
	Rate() float64
	SetRate(rate float64)
	Paused() bool
	// Play may fail, e.g. when the platform rejects autoplay or the load
	// was interrupted.
	Play(ctx context.Context) error
	Pause()
	// Subscribe registers fn for native events and returns its cancel func.
	// Events may be delivered from any goroutine, including from inside a
	// call the player made on the handle.
	Subscribe(fn func(MediaEvent)) (unsubscribe func())
}

// native media event kind
type MediaEventKind int

const (
	MediaTimeUpdate MediaEventKind = iota
	MediaPlay
	MediaPause
	MediaEnded
	MediaSeeking
	MediaSeeked
	MediaFailed
	MediaLoadedMetadata
)

func (k MediaEventKind) String() string {
	switch k {
	case MediaTimeUpdate:
		return "timeupdate"
	case MediaPlay:
		return "play"
	case MediaPause:
		return "pause"
	case MediaEnded:
		return "ended"
	case MediaSeeking:
		return "seeking"
	case MediaSeeked:
		return "seeked"
	case MediaFailed:
		return "error"
	case MediaLoadedMetadata:
		return "loadedmetadata"
	default:
		return "unknown"
	}
}

type MediaEvent struct {
	Kind MediaEventKind
	// set for MediaFailed
	Err error
}

// load/decode failure class reported by the handle
type MediaErrorCode int

const (
	MediaErrAborted MediaErrorCode = iota + 1
	MediaErrNetwork
	MediaErrDecode
	MediaErrSrcNotSupported
)

type MediaError struct {
	Code MediaErrorCode
	Err  error
}

func (e *MediaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("media error %d", e.Code)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// Message maps the failure to a message fit for the learner.
func (e *MediaError) Message() string {
	switch e.Code {
	case MediaErrAborted:
		return "audio loading was aborted"
	case MediaErrNetwork:
		return "network error, could not load audio"
	case MediaErrDecode:
		return "audio decoding failed"
	case MediaErrSrcNotSupported:
		return "unsupported audio format"
	default:
		return "audio failed to load"
	}
}
