package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncestudy/nce/internal/lrc"
)

// FillTranslations translates the sentences of lesson and stores the
// results in Segment.Translation. Segments that already carry a
// translation are left alone unless overwrite is set. It returns how many
// segments were filled.
func FillTranslations(
	ctx context.Context,
	t Translator,
	lesson *lrc.Lesson,
	concurrency int,
	overwrite bool,
) (int, error) {
	var items []Item
	for i, seg := range lesson.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		if seg.Translation != "" && !overwrite {
			continue
		}
		items = append(items, Item{Index: i, Text: seg.Text})
	}
	if len(items) == 0 {
		return 0, nil
	}

	var (
		results []Result
		err     error
	)
	if ct, ok := t.(ConcurrentTranslator); ok && concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, concurrency)
	} else {
		results, err = t.Translate(ctx, items)
	}
	if err != nil {
		return 0, err
	}

	wanted := make(map[int]bool, len(items))
	for _, it := range items {
		wanted[it.Index] = true
	}

	filled := 0
	for _, r := range results {
		if !wanted[r.Index] {
			return filled, fmt.Errorf("translation for unknown sentence %d", r.Index)
		}
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		lesson.Segments[r.Index].Translation = text
		filled++
	}
	return filled, nil
}
