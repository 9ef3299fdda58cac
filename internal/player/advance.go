package player

import (
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// assumed length of a segment whose end is unknown
	fallbackSegmentLength = time.Second
	// stop this far before the boundary in single-sentence mode
	sentenceCutoff = 500 * time.Millisecond
	minSentenceLength = 200 * time.Millisecond
	minRate           = 0.1

	repeatOneDelay  = 300 * time.Millisecond
	repeatAllDelay  = 500 * time.Millisecond
	transitionGrace = 100 * time.Millisecond
	seekTimeout     = 5 * time.Second
)

// computeSegmentEnd returns where playback of segment i should stop.
func (p *Player) computeSegmentEnd(i int) time.Duration {
	seg := p.segments[i]
	end := seg.End
	if !seg.HasEnd() {
		end = seg.Start + fallbackSegmentLength
	}
	if !p.settings.SingleSentence {
		return end
	}

	if i+1 < len(p.segments) {
		if next := p.segments[i+1].Start; next > seg.Start && next < end {
			end = next
		}
	}
	return max(seg.Start+minSentenceLength, end-sentenceCutoff)
}

// scheduleAdvance replaces the advance timer with one for the current
// segment's boundary. Nothing is scheduled while paused or without a
// boundary.
func (p *Player) scheduleAdvance() {
	p.cancelAdvance()
	if p.current == NoSegment || p.segmentEnd == 0 || p.media.Paused() {
		return
	}

	rate := p.media.Rate()
	if rate == 0 {
		rate = p.settings.Rate
	}
	rate = max(minRate, rate)

	remaining := p.segmentEnd - p.media.Position()
	delay := max(0, time.Duration(float64(remaining)/rate))

	gen, index := p.advanceGen, p.current
	p.advanceTimer = p.clock.AfterFunc(delay, func() {
		p.onAdvance(gen, index)
	})
}

func (p *Player) cancelAdvance() {
	p.advanceGen++
	p.stopTimer(&p.advanceTimer)
}

func (p *Player) cancelSettle() {
	p.settleGen++
	p.stopTimer(&p.settleTimer)
}

func (p *Player) stopTimer(t **clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// onAdvance runs when playback reaches the boundary of the segment at index.
func (p *Player) onAdvance(gen uint64, index int) {
	p.mu.Lock()
	if p.destroyed || gen != p.advanceGen {
		p.unlock()
		return
	}
	p.advanceTimer = nil

	next := NoSegment
	switch {
	case p.settings.SingleSentence:
		p.pauseMedia()
		if p.settings.Loop == LoopRepeatOne {
			p.scheduleReplay(repeatOneDelay, index)
		}
	case index+1 < len(p.segments):
		next = index + 1
	default:
		p.pauseMedia()
		if p.settings.Loop == LoopRepeatAll {
			p.scheduleReplay(repeatAllDelay, 0)
		} else {
			p.logger.Debugw("lesson ended", "segments", len(p.segments))
			p.queue(LessonEnded{})
		}
	}
	p.unlock()

	if next != NoSegment {
		p.PlaySegment(p.ctx, next, false)
	}
}

// scheduleReplay plays the segment at index after a settle delay.
func (p *Player) scheduleReplay(delay time.Duration, index int) {
	p.cancelSettle()
	gen := p.settleGen
	p.settleTimer = p.clock.AfterFunc(delay, func() {
		p.mu.Lock()
		if p.destroyed || gen != p.settleGen {
			p.unlock()
			return
		}
		p.settleTimer = nil
		p.unlock()

		p.PlaySegment(p.ctx, index, false)
	})
}

// startGrace releases the transition flag after a short delay.
func (p *Player) startGrace() {
	p.stopTimer(&p.graceTimer)
	gen := p.graceGen
	p.graceTimer = p.clock.AfterFunc(transitionGrace, func() {
		p.mu.Lock()
		defer p.unlock()
		if gen != p.graceGen {
			return
		}
		p.graceTimer = nil
		p.transitioning = false
	})
}

func (p *Player) pauseMedia() {
	p.media.Pause()
	p.tracking = false
}

// applyPolicy re-derives the boundary after a settings change. At the end of
// the media there is nothing to reschedule and the current segment is
// dropped instead.
func (p *Player) applyPolicy() {
	p.cancelAdvance()

	if p.current != NoSegment && !p.media.Paused() {
		p.segmentEnd = p.computeSegmentEnd(p.current)
		p.scheduleAdvance()
		return
	}
	if p.atTerminal(p.media.Position()) {
		p.clearSegment()
		return
	}
	if p.current != NoSegment {
		p.segmentEnd = p.computeSegmentEnd(p.current)
	}
}

func (p *Player) atTerminal(pos time.Duration) bool {
	dur := p.media.Duration()
	return dur > 0 && pos >= dur-p.terminalThreshold
}

func (p *Player) clearSegment() {
	p.tracking = false
	if p.current == NoSegment {
		return
	}
	p.current = NoSegment
	p.segmentEnd = 0
	p.queue(SegmentCleared{})
}
