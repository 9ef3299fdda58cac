package player

import (
	"fmt"
	"strings"
)

// what happens when a sentence or the lesson runs out
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopRepeatOne
	LoopRepeatAll
)

func (m LoopMode) String() string {
	switch m {
	case LoopNone:
		return "none"
	case LoopRepeatOne:
		return "one"
	case LoopRepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseLoopMode accepts none, one (or single) and all.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return LoopNone, nil
	case "one", "single":
		return LoopRepeatOne, nil
	case "all":
		return LoopRepeatAll, nil
	default:
		return LoopNone, fmt.Errorf("unknown loop mode %q: use none, one or all", s)
	}
}

// ParseReadMode maps "single" and "continuous" to the single-sentence flag.
func ParseReadMode(s string) (singleSentence bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continuous":
		return false, nil
	case "single":
		return true, nil
	default:
		return false, fmt.Errorf("unknown read mode %q: use continuous or single", s)
	}
}

// user playback policy, handed to the player explicitly
type Settings struct {
	// stop after each sentence instead of running on
	SingleSentence bool
	Loop           LoopMode
	Rate           float64
}

func DefaultSettings() Settings {
	return Settings{
		SingleSentence: false,
		Loop:           LoopNone,
		Rate:           1,
	}
}
