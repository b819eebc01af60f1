package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"recall/internal/history"
	"recall/internal/models"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var searchTerm string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the chat history grouped by date",
	Long: `Prints every stored chat, newest first, under the same date headings the
history dialog uses. With --search only chats whose title or id contains the
text are shown.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "Only show chats whose title or id contains this text")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, db, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	chats, err := db.ListChats(context.Background())
	if err != nil {
		return fmt.Errorf("error listing chats: %w", err)
	}

	printHistory(cmd.OutOrStdout(), chats, searchTerm, time.Now())
	return nil
}

func printHistory(w io.Writer, chats []models.Chat, term string, now time.Time) {
	groups := history.GroupChats(chats, term, now)
	if len(groups) == 0 {
		f := color.New(color.Faint, color.Italic)
		if term != "" {
			_, _ = f.Fprintf(w, "No chats match %q\n", term)
		} else {
			_, _ = f.Fprintln(w, "No chat history found")
		}
		return
	}

	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	for i, g := range groups {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = t.Fprint(w, g.Label)
		_, _ = c.Fprintf(w, " - %d\n", len(g.Chats))

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 60
		for _, chat := range g.Chats {
			tbl.AddRow(chat.DisplayTitle(), c.Sprint(history.FormatDate(chat.CreatedAt, now)), c.Sprint(chat.ID))
		}
		_, _ = fmt.Fprintln(w, tbl)
	}
}
