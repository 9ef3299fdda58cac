package player

import (
	"errors"
	"time"
)

// handleMediaEvent runs under the turn lock.
func (p *Player) handleMediaEvent(ev MediaEvent) {
	if p.destroyed {
		return
	}

	switch ev.Kind {
	case MediaTimeUpdate:
		p.track()
	case MediaPlay:
		p.scheduleAdvance()
	case MediaPause:
		p.cancelAdvance()
		p.tracking = false
	case MediaEnded:
		p.queue(Ended{})
	case MediaSeeking:
		p.seekStarted()
	case MediaSeeked:
		p.seeking = false
		p.seekGen++
		p.stopTimer(&p.seekTimer)
	case MediaFailed:
		p.queue(mediaError(ev.Err))
	case MediaLoadedMetadata:
		p.resolveLastEnd(p.media.Duration())
	}
}

// track follows the playback position into the segment that contains it.
func (p *Player) track() {
	if p.transitioning || p.seeking || !p.tracking {
		return
	}

	pos := p.media.Position()
	index := p.segmentAt(pos)
	if index == NoSegment || index == p.current {
		return
	}

	p.logger.Debugw("position moved to segment", "index", index, "position", pos)
	p.current = index
	p.segmentEnd = p.computeSegmentEnd(index)
	p.queue(SegmentChanged{Index: index, Segment: p.segments[index]})
}

// segmentAt returns the first segment whose [start, end) holds pos. An
// unresolved end is open.
func (p *Player) segmentAt(pos time.Duration) int {
	for i, seg := range p.segments {
		if pos < seg.Start {
			continue
		}
		if seg.End == 0 || pos < seg.End {
			return i
		}
	}
	return NoSegment
}

func (p *Player) seekStarted() {
	p.seeking = true
	// seeks of our own during a transition keep the gate
	if !p.transitioning {
		p.tracking = false
	}

	p.seekGen++
	gen := p.seekGen
	p.stopTimer(&p.seekTimer)
	p.seekTimer = p.clock.AfterFunc(seekTimeout, func() {
		p.mu.Lock()
		defer p.unlock()
		if gen != p.seekGen || !p.seeking {
			return
		}
		p.logger.Warnw("seek did not complete, resuming tracking", "timeout", seekTimeout)
		p.seekTimer = nil
		p.seeking = false
	})
}

// resolveLastEnd sets the last segment's end to the media duration when the
// lesson file left it open.
func (p *Player) resolveLastEnd(dur time.Duration) {
	if dur <= 0 || len(p.segments) == 0 {
		return
	}
	last := len(p.segments) - 1
	seg := &p.segments[last]
	if seg.HasEnd() && seg.End > seg.Start {
		return
	}
	if dur <= seg.Start {
		return
	}
	seg.End = dur

	if p.current == last {
		p.segmentEnd = p.computeSegmentEnd(last)
		if !p.media.Paused() {
			p.scheduleAdvance()
		}
	}
}

func mediaError(err error) Error {
	var me *MediaError
	if errors.As(err, &me) {
		return Error{Err: err, Message: me.Message()}
	}
	if err == nil {
		err = &MediaError{}
	}
	return Error{Err: err, Message: "audio failed to load"}
}
