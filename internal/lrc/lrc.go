package lrc

import (
	"time"
)

// one timed sentence of a lesson
type Segment struct {
	Start time.Duration
	// zero until resolved: the parser chains it to the next start and the
	// player patches the last one with the media duration
	End         time.Duration
	Text        string
	Translation string
}

// HasEnd reports whether the end boundary has been resolved.
func (s Segment) HasEnd() bool {
	return s.End > 0
}

// lesson header tags
type Metadata struct {
	Album  string `json:"album,omitempty"`
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// parsed lesson file
type Lesson struct {
	Metadata Metadata
	Segments []Segment
}

// ChainEnds sets every segment's end to the next segment's start and leaves
// the last one unresolved.
func ChainEnds(segments []Segment) {
	for i := range segments {
		if i+1 < len(segments) {
			segments[i].End = segments[i+1].Start
		} else {
			segments[i].End = 0
		}
	}
}
