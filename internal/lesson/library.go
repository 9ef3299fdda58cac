package lesson

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ncestudy/nce/internal/lrc"
)

var ErrNotFound = errors.New("lesson not found")

const (
	lessonExt = ".lrc"
	audioExt  = ".mp3"
)

// Library is a content root with one directory per book, each holding
// <name>.lrc files with a sibling <name>.mp3.
type Library struct {
	root string
}

// one lesson file in a book
type Entry struct {
	Book     string `json:"book"`
	Name     string `json:"name"`
	Path     string `json:"-"`
	HasAudio bool   `json:"has_audio"`
}

// loaded lesson with its files
type Lesson struct {
	Entry
	AudioPath string `json:"-"`
	*lrc.Lesson
}

func NewLibrary(root string) *Library {
	return &Library{root: root}
}

func (l *Library) Root() string {
	return l.root
}

// Books lists the book directories in natural order (NCE1 before NCE10).
func (l *Library) Books() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read library %s: %w", l.root, err)
	}

	var books []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			books = append(books, e.Name())
		}
	}
	sortNatural(books)
	return books, nil
}

// Lessons lists the lesson files of a book in natural order.
func (l *Library) Lessons(book string) ([]Entry, error) {
	dir, err := l.bookDir(book)
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("book %q: %w", book, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read book %s: %w", book, err)
	}

	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), lessonExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
	}
	sortNatural(names)

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		out = append(out, l.entry(book, name))
	}
	return out, nil
}

// Load parses a lesson and locates its audio.
func (l *Library) Load(book, name string) (*Lesson, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if _, err := l.bookDir(book); err != nil {
		return nil, err
	}

	entry := l.entry(book, name)
	parsed, err := lrc.ParseFile(entry.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", book, name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	lesson := &Lesson{Entry: entry, Lesson: parsed}
	if entry.HasAudio {
		lesson.AudioPath = l.audioPath(book, name)
	}
	return lesson, nil
}

// Next returns the lesson after name in the same book. ok is false on the
// last lesson.
func (l *Library) Next(book, name string) (next Entry, ok bool, err error) {
	lessons, err := l.Lessons(book)
	if err != nil {
		return Entry{}, false, err
	}

	for i, e := range lessons {
		if e.Name != name {
			continue
		}
		if i+1 < len(lessons) {
			return lessons[i+1], true, nil
		}
		return Entry{}, false, nil
	}
	return Entry{}, false, fmt.Errorf("%s/%s: %w", book, name, ErrNotFound)
}

func (l *Library) entry(book, name string) Entry {
	e := Entry{
		Book: book,
		Name: name,
		Path: filepath.Join(l.root, book, name+lessonExt),
	}
	if _, err := os.Stat(l.audioPath(book, name)); err == nil {
		e.HasAudio = true
	}
	return e
}

func (l *Library) audioPath(book, name string) string {
	return filepath.Join(l.root, book, name+audioExt)
}

func (l *Library) bookDir(book string) (string, error) {
	if err := validName(book); err != nil {
		return "", err
	}
	return filepath.Join(l.root, book), nil
}

// names come from URLs and flags and must stay inside the library
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("invalid name %q: %w", name, ErrNotFound)
	}
	return nil
}

// sortNatural orders names so that embedded numbers compare by value.
func sortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})
}

func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, ra := leadingDigits(a)
		db, rb := leadingDigits(b)
		if da != "" && db != "" {
			na, _ := strconv.Atoi(da)
			nb, _ := strconv.Atoi(db)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (digits, rest string) {
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
