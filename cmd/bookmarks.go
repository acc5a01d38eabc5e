package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelmark/media"
)

var bookmarkType string

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "List your bookmarked movies and TV shows",
	Args:    cobra.NoArgs,
	RunE:    runBookmarksList,
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add <type> <id>",
	Short: "Bookmark an item",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookmarkAdd,
}

var bookmarkRemoveCmd = &cobra.Command{
	Use:     "remove <type> <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a bookmark",
	Args:    cobra.ExactArgs(2),
	RunE:    runBookmarkRemove,
}

var bookmarkToggleCmd = &cobra.Command{
	Use:   "toggle <type> <id>",
	Short: "Add the bookmark if missing, remove it otherwise",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookmarkToggle,
}

var bookmarkStatusCmd = &cobra.Command{
	Use:   "status <type> <id>",
	Short: "Check whether an item is bookmarked",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookmarkStatus,
}

func init() {
	bookmarksCmd.Flags().StringVarP(&bookmarkType, "type", "t", "", "movies or tv (default both)")
	bookmarksCmd.AddCommand(bookmarkAddCmd, bookmarkRemoveCmd, bookmarkToggleCmd, bookmarkStatusCmd)
	rootCmd.AddCommand(bookmarksCmd)
}

type bookmarkTarget struct {
	userID string
	col    media.Collection
	itemID string
}

// target resolves <type> <id> and the current user
func target(cmd *cobra.Command, args []string) (bookmarkTarget, error) {
	col, err := media.ParseCollection(args[0])
	if err != nil {
		return bookmarkTarget{}, err
	}
	userID, err := currentUserID(cmd.Context())
	if err != nil {
		return bookmarkTarget{}, err
	}
	return bookmarkTarget{userID: userID, col: col, itemID: args[1]}, nil
}

type bookmarkState struct {
	ID         string           `json:"id" yaml:"id"`
	Collection media.Collection `json:"type" yaml:"type"`
	Bookmarked bool             `json:"bookmarked" yaml:"bookmarked"`
}

func printState(cmd *cobra.Command, t bookmarkTarget, bookmarked bool, text string) error {
	return render(cmd, bookmarkState{ID: t.itemID, Collection: t.col, Bookmarked: bookmarked}, func() string {
		return text + "\n"
	})
}

func runBookmarksList(cmd *cobra.Command, args []string) error {
	cols, err := selectedCollections(bookmarkType)
	if err != nil {
		return err
	}
	userID, err := currentUserID(cmd.Context())
	if err != nil {
		return err
	}

	items, err := current.bookmarks.Resolve(cmd.Context(), userID, cols...)
	if err != nil {
		return err
	}

	formatter := media.NewConsoleFormatter(current.client.AssetURL)
	return render(cmd, items, func() string {
		return formatter.FormatBookmarks(items)
	})
}

func runBookmarkAdd(cmd *cobra.Command, args []string) error {
	t, err := target(cmd, args)
	if err != nil {
		return err
	}
	if _, err := current.bookmarks.Create(cmd.Context(), t.itemID, t.col, t.userID); err != nil {
		return err
	}
	return printState(cmd, t, true, fmt.Sprintf("Bookmarked %s %s", t.col.Label(), t.itemID))
}

func runBookmarkRemove(cmd *cobra.Command, args []string) error {
	t, err := target(cmd, args)
	if err != nil {
		return err
	}
	if err := current.bookmarks.Remove(cmd.Context(), t.itemID, t.userID, t.col); err != nil {
		return err
	}
	return printState(cmd, t, false, fmt.Sprintf("Removed bookmark for %s %s", t.col.Label(), t.itemID))
}

func runBookmarkToggle(cmd *cobra.Command, args []string) error {
	t, err := target(cmd, args)
	if err != nil {
		return err
	}
	state, err := current.bookmarks.Toggle(cmd.Context(), t.itemID, t.col, t.userID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Removed bookmark for %s %s", t.col.Label(), t.itemID)
	if state {
		text = fmt.Sprintf("Bookmarked %s %s", t.col.Label(), t.itemID)
	}
	return printState(cmd, t, state, text)
}

func runBookmarkStatus(cmd *cobra.Command, args []string) error {
	t, err := target(cmd, args)
	if err != nil {
		return err
	}
	state, err := current.bookmarks.IsBookmarked(cmd.Context(), t.itemID, t.col, t.userID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("%s %s is not bookmarked", t.col.Label(), t.itemID)
	if state {
		text = fmt.Sprintf("%s %s is bookmarked", t.col.Label(), t.itemID)
	}
	return printState(cmd, t, state, text)
}
