package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncestudy/nce/internal/lrc"
	"github.com/ncestudy/nce/internal/progress"
)

// times go over the wire as seconds
type segmentJSON struct {
	Index       int     `json:"index"`
	Start       float64 `json:"start"`
	End         float64 `json:"end,omitempty"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
}

type lessonJSON struct {
	Book     string        `json:"book"`
	Name     string        `json:"name"`
	HasAudio bool          `json:"has_audio"`
	Metadata lrc.Metadata  `json:"metadata"`
	Segments []segmentJSON `json:"segments"`
}

type progressJSON struct {
	Index      int       `json:"index"`
	Position   float64   `json:"position"`
	Duration   float64   `json:"duration"`
	Percentage int       `json:"percentage"`
	StudyTime  float64   `json:"study_time"`
	LastStudy  time.Time `json:"last_study"`
}

type progressRequest struct {
	Index    *int    `json:"index" binding:"required"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

func durationOf(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.library.Books()
	if err != nil {
		s.fail(c, err)
		return
	}
	if books == nil {
		books = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

func (s *Server) listLessons(c *gin.Context) {
	lessons, err := s.library.Lessons(c.Param("book"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (s *Server) getLesson(c *gin.Context) {
	l, err := s.library.Load(c.Param("book"), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}

	out := lessonJSON{
		Book:     l.Book,
		Name:     l.Name,
		HasAudio: l.HasAudio,
		Metadata: l.Metadata,
		Segments: make([]segmentJSON, len(l.Segments)),
	}
	for i, seg := range l.Segments {
		out.Segments[i] = segmentJSON{
			Index:       i,
			Start:       seg.Start.Seconds(),
			End:         seg.End.Seconds(),
			Text:        seg.Text,
			Translation: seg.Translation,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getAudio(c *gin.Context) {
	l, err := s.library.Load(c.Param("book"), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if l.AudioPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson has no audio"})
		return
	}
	c.File(l.AudioPath)
}

func (s *Server) getProgress(c *gin.Context) {
	book, name := c.Param("book"), c.Param("name")
	entry, ok := s.progress.Get(progress.Key(book, name))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no progress for %s/%s", book, name)})
		return
	}
	c.JSON(http.StatusOK, toProgressJSON(entry))
}

func (s *Server) putProgress(c *gin.Context) {
	book, name := c.Param("book"), c.Param("name")

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	l, err := s.library.Load(book, name)
	if err != nil {
		s.fail(c, err)
		return
	}
	total := len(l.Segments)
	if *req.Index < 0 || *req.Index >= total {
		badRequest(c, fmt.Sprintf("index %d out of range [0, %d)", *req.Index, total))
		return
	}
	if req.Position < 0 || req.Duration < 0 {
		badRequest(c, "position and duration must not be negative")
		return
	}

	key := progress.Key(book, name)
	err = s.progress.Update(key, func(e progress.Entry) progress.Entry {
		e.Index = *req.Index
		e.Position = durationOf(req.Position)
		e.Duration = durationOf(req.Duration)
		e.Percentage = progress.Percentage(*req.Index, total)
		e.LastStudy = time.Now()
		return e
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	entry, _ := s.progress.Get(key)
	c.JSON(http.StatusOK, toProgressJSON(entry))
}

func toProgressJSON(e progress.Entry) progressJSON {
	return progressJSON{
		Index:      e.Index,
		Position:   e.Position.Seconds(),
		Duration:   e.Duration.Seconds(),
		Percentage: e.Percentage,
		StudyTime:  e.StudyTime.Seconds(),
		LastStudy:  e.LastStudy,
	}
}

func (s *Server) getSettings(c *gin.Context) {
	pb := s.config.Playback
	c.JSON(http.StatusOK, gin.H{
		"read_mode": pb.ReadMode,
		"loop_mode": pb.LoopMode,
		"rate":      pb.Rate,
		"auto_next": pb.AutoNext,
	})
}
