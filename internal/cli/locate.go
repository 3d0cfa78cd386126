package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"scriptura/pkg/canon"
)

func init() {
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve a page index or (book, chapter) coordinate",
		Run:   runLocate,
	}

	cmd.Flags().IntP("index", "i", -1, "Absolute page index to resolve")
	cmd.Flags().IntP("book", "b", 0, "Book id (1-66), used with --chapter")
	cmd.Flags().Int("chapter", 0, "Chapter number, used with --book")

	RootCmd.AddCommand(cmd)
}

func runLocate(cmd *cobra.Command, _ []string) {
	index, _ := cmd.Flags().GetInt("index")
	bookID, _ := cmd.Flags().GetInt("book")
	chapter, _ := cmd.Flags().GetInt("chapter")

	if bookID > 0 && chapter > 0 {
		idx := canon.AbsolutePageIndex(bookID, chapter, canon.Books)
		if idx < 0 {
			exitErr("locate", fmt.Errorf("no chapter %d in book %d", chapter, bookID))
		}
		index = idx
	} else if !cmd.Flags().Changed("index") {
		exitErr("locate", fmt.Errorf("pass --index or both --book and --chapter"))
	}

	wrapped := canon.WrapPageIndex(index, canon.Books)
	ref, ok := canon.ChapterFromPageIndex(wrapped, canon.Books)
	if !ok {
		exitErr("locate", fmt.Errorf("page index %d out of range", index))
	}
	name := ""
	if b, ok := canon.BookByID(ref.BookID, canon.Books); ok {
		name = b.Name
	}
	b, _ := json.MarshalIndent(canon.Slot{
		Index:    wrapped,
		BookID:   ref.BookID,
		Chapter:  ref.Chapter,
		BookName: name,
	}, "", "  ")
	fmt.Println(string(b))
}
