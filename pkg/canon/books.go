package canon

import "strings"

// Testament marks which half of the canon a book belongs to.
type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

// Book is the immutable metadata for one canonical book. IDs are contiguous
// 1..66 with Old Testament books preceding New Testament books.
type Book struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Testament Testament `json:"testament"`
	Chapters  int       `json:"chapterCount"`
}

// Books lists the 66 canonical books in canonical order, 1189 chapters total.
var Books = []Book{
	{1, "Genesis", OldTestament, 50},
	{2, "Exodus", OldTestament, 40},
	{3, "Leviticus", OldTestament, 27},
	{4, "Numbers", OldTestament, 36},
	{5, "Deuteronomy", OldTestament, 34},
	{6, "Joshua", OldTestament, 24},
	{7, "Judges", OldTestament, 21},
	{8, "Ruth", OldTestament, 4},
	{9, "1 Samuel", OldTestament, 31},
	{10, "2 Samuel", OldTestament, 24},
	{11, "1 Kings", OldTestament, 22},
	{12, "2 Kings", OldTestament, 25},
	{13, "1 Chronicles", OldTestament, 29},
	{14, "2 Chronicles", OldTestament, 36},
	{15, "Ezra", OldTestament, 10},
	{16, "Nehemiah", OldTestament, 13},
	{17, "Esther", OldTestament, 10},
	{18, "Job", OldTestament, 42},
	{19, "Psalms", OldTestament, 150},
	{20, "Proverbs", OldTestament, 31},
	{21, "Ecclesiastes", OldTestament, 12},
	{22, "Song of Solomon", OldTestament, 8},
	{23, "Isaiah", OldTestament, 66},
	{24, "Jeremiah", OldTestament, 52},
	{25, "Lamentations", OldTestament, 5},
	{26, "Ezekiel", OldTestament, 48},
	{27, "Daniel", OldTestament, 12},
	{28, "Hosea", OldTestament, 14},
	{29, "Joel", OldTestament, 3},
	{30, "Amos", OldTestament, 9},
	{31, "Obadiah", OldTestament, 1},
	{32, "Jonah", OldTestament, 4},
	{33, "Micah", OldTestament, 7},
	{34, "Nahum", OldTestament, 3},
	{35, "Habakkuk", OldTestament, 3},
	{36, "Zephaniah", OldTestament, 3},
	{37, "Haggai", OldTestament, 2},
	{38, "Zechariah", OldTestament, 14},
	{39, "Malachi", OldTestament, 4},
	{40, "Matthew", NewTestament, 28},
	{41, "Mark", NewTestament, 16},
	{42, "Luke", NewTestament, 24},
	{43, "John", NewTestament, 21},
	{44, "Acts", NewTestament, 28},
	{45, "Romans", NewTestament, 16},
	{46, "1 Corinthians", NewTestament, 16},
	{47, "2 Corinthians", NewTestament, 13},
	{48, "Galatians", NewTestament, 6},
	{49, "Ephesians", NewTestament, 6},
	{50, "Philippians", NewTestament, 4},
	{51, "Colossians", NewTestament, 4},
	{52, "1 Thessalonians", NewTestament, 5},
	{53, "2 Thessalonians", NewTestament, 3},
	{54, "1 Timothy", NewTestament, 6},
	{55, "2 Timothy", NewTestament, 4},
	{56, "Titus", NewTestament, 3},
	{57, "Philemon", NewTestament, 1},
	{58, "Hebrews", NewTestament, 13},
	{59, "James", NewTestament, 5},
	{60, "1 Peter", NewTestament, 5},
	{61, "2 Peter", NewTestament, 3},
	{62, "1 John", NewTestament, 5},
	{63, "2 John", NewTestament, 1},
	{64, "3 John", NewTestament, 1},
	{65, "Jude", NewTestament, 1},
	{66, "Revelation", NewTestament, 22},
}

// BookByID returns the book with the given id.
func BookByID(id int, books []Book) (Book, bool) {
	for _, b := range books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

// BookByName returns the book whose name matches (case-insensitive).
func BookByName(name string, books []Book) (Book, bool) {
	for _, b := range books {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return b, true
		}
	}
	return Book{}, false
}
