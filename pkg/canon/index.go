// Package canon maps canonical (book, chapter) coordinates onto a flat,
// contiguous page-index space covering the whole corpus, with circular
// wraparound so the last chapter and the first are adjacent for paging.
//
// Out-of-range input is routine during boundary navigation, so lookups
// signal failure through sentinel return values instead of errors.
package canon

// Ref is a 1-based (book, chapter) coordinate.
type Ref struct {
	BookID  int `json:"bookId"`
	Chapter int `json:"chapter"`
}

// AbsolutePageIndex returns the 0-based position of the chapter within the
// flattened corpus: the chapter counts of every preceding book plus
// (chapter - 1). Returns -1 for an empty book list, an unknown book, or a
// chapter outside the book's range.
func AbsolutePageIndex(bookID, chapter int, books []Book) int {
	if len(books) == 0 || chapter < 1 {
		return -1
	}
	sum := 0
	for _, b := range books {
		if b.ID == bookID {
			if chapter > b.Chapters {
				return -1
			}
			return sum + chapter - 1
		}
		sum += b.Chapters
	}
	return -1
}

// ChapterFromPageIndex is the exact inverse of AbsolutePageIndex. It walks
// the book list accumulating chapter counts until the running total passes
// index. Reports ok=false for a negative index, an index beyond the corpus,
// or an empty book list.
func ChapterFromPageIndex(index int, books []Book) (Ref, bool) {
	if index < 0 || len(books) == 0 {
		return Ref{}, false
	}
	total := 0
	for _, b := range books {
		if index < total+b.Chapters {
			return Ref{BookID: b.ID, Chapter: index - total + 1}, true
		}
		total += b.Chapters
	}
	return Ref{}, false
}

// MaxPageIndex returns the highest valid page index (total chapters - 1).
// Empty input yields 0, not -1: this describes a bound, not a lookup, and
// zero is a valid index for a single-chapter corpus.
func MaxPageIndex(books []Book) int {
	if len(books) == 0 {
		return 0
	}
	total := 0
	for _, b := range books {
		total += b.Chapters
	}
	return total - 1
}

// IsValidPageIndex reports whether index addresses a chapter in the corpus.
func IsValidPageIndex(index int, books []Book) bool {
	return len(books) > 0 && index >= 0 && index <= MaxPageIndex(books)
}

// WrapPageIndex maps an out-of-range index back into [0, max] with modular
// arithmetic: -1 wraps to the last chapter, max+1 wraps to the first.
// In-range indices pass through unchanged. Returns -1 for an empty book
// list, since wrapping is undefined without a corpus size.
func WrapPageIndex(index int, books []Book) int {
	if len(books) == 0 {
		return -1
	}
	n := MaxPageIndex(books) + 1
	wrapped := index % n
	if wrapped < 0 {
		wrapped += n
	}
	return wrapped
}

// Slot is one entry of a paging window: a wrapped absolute index resolved
// back to its coordinate.
type Slot struct {
	Index    int    `json:"index"`
	BookID   int    `json:"bookId"`
	Chapter  int    `json:"chapter"`
	BookName string `json:"bookName"`
}

// Window builds the sliding paging window of the given size centered on
// (bookID, chapter). Slots falling past either end of the corpus wrap
// around, so the renderer always receives valid coordinates. Returns nil
// when the center coordinate or size is invalid.
func Window(bookID, chapter, size int, books []Book) []Slot {
	if size < 1 {
		return nil
	}
	center := AbsolutePageIndex(bookID, chapter, books)
	if center < 0 {
		return nil
	}
	slots := make([]Slot, 0, size)
	for i := 0; i < size; i++ {
		idx := WrapPageIndex(center+i-size/2, books)
		ref, ok := ChapterFromPageIndex(idx, books)
		if !ok {
			return nil
		}
		name := ""
		if b, ok := BookByID(ref.BookID, books); ok {
			name = b.Name
		}
		slots = append(slots, Slot{Index: idx, BookID: ref.BookID, Chapter: ref.Chapter, BookName: name})
	}
	return slots
}
