package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelmark/media"
)

var (
	contentType   string
	searchQuery   string
	filterExpr    string
	presetName    string
	onlyBookmarks bool
)

var contentCmd = &cobra.Command{
	Use:     "content",
	Aliases: []string{"list", "ls"},
	Short:   "List movies and TV shows",
	Long: `List the catalogue. Narrow it down with a title search, a filter
expression or a preset from the config file.

Filter expressions use the expr language:
  hasGenre("crime") and daysSince(DateCreated) < 30
  isShow() and contains(Description, "detective")

or the shorthand form:
  genre:"crime" AND NOT title:"heat"`,
	Args: cobra.NoArgs,
	RunE: runContent,
}

var showCmd = &cobra.Command{
	Use:   "show <type> <id>",
	Short: "Show a movie or TV show",
	Example: `  reelmark show movie 12
  reelmark show tv 7`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func init() {
	contentCmd.Flags().StringVarP(&contentType, "type", "t", "", "movies or tv (default both)")
	contentCmd.Flags().StringVarP(&searchQuery, "search", "s", "", "only titles containing this text")
	contentCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	contentCmd.Flags().StringVarP(&presetName, "preset", "p", "", "use a filter preset from config")
	contentCmd.Flags().BoolVarP(&onlyBookmarks, "bookmarked", "b", false, "only bookmarked items")

	rootCmd.AddCommand(contentCmd, showCmd)
}

// selectedCollections parses --type, returning every collection when empty
func selectedCollections(value string) ([]media.Collection, error) {
	if value == "" {
		return media.Collections, nil
	}
	col, err := media.ParseCollection(value)
	if err != nil {
		return nil, err
	}
	return []media.Collection{col}, nil
}

func runContent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cols, err := selectedCollections(contentType)
	if err != nil {
		return err
	}

	all, err := listItems(ctx, cols, searchQuery)
	if err != nil {
		return err
	}

	bookmarked := map[string]bool{}
	if current.store.Authenticated() {
		if bookmarked, err = bookmarkedKeys(ctx, cols); err != nil {
			current.logger.Warn().Err(err).Msg("Could not load bookmarks")
			bookmarked = map[string]bool{}
		}
	} else if onlyBookmarks {
		return requireLogin()
	}

	results := make(map[media.Collection][]media.Item, len(cols))
	for _, col := range cols {
		items := all[col]
		if onlyBookmarks {
			items = keep(items, func(item media.Item) bool { return bookmarked[item.Key()] })
		}
		if items, err = applyFilter(ctx, items); err != nil {
			return err
		}
		results[col] = items
	}

	formatter := media.NewConsoleFormatter(current.client.AssetURL)
	return render(cmd, results, func() string {
		var sb strings.Builder
		for _, col := range cols {
			marks := make(map[string]bool)
			for _, item := range results[col] {
				marks[item.ID.String()] = bookmarked[item.Key()]
			}
			sb.WriteString(formatter.FormatItemList(col, results[col], marks))
		}
		return sb.String()
	})
}

// listItems fetches cols sorted by title, narrowed to a title search when query is set
func listItems(ctx context.Context, cols []media.Collection, query string) (map[media.Collection][]media.Item, error) {
	if strings.TrimSpace(query) == "" {
		return current.catalog.ListAll(ctx, cols...)
	}

	all := make(map[media.Collection][]media.Item, len(cols))
	for _, col := range cols {
		items, err := current.catalog.Search(ctx, col, query)
		if err != nil {
			return nil, err
		}
		media.SortByTitle(items)
		all[col] = items
	}
	return all, nil
}

// applyFilter runs --preset and --filter over items
func applyFilter(ctx context.Context, items []media.Item) ([]media.Item, error) {
	var err error
	if presetName != "" {
		if items, err = current.filters.EvaluateFilter(ctx, presetName, items); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(filterExpr) != "" {
		if items, err = current.filters.Evaluate(ctx, filterExpr, items); err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
	}
	return items, nil
}

// bookmarkedKeys returns Item.Key values of the user's bookmarks in cols
func bookmarkedKeys(ctx context.Context, cols []media.Collection) (map[string]bool, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool)
	for _, col := range cols {
		ids, err := current.bookmarks.ListForUser(ctx, userID, col)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			keys[media.Item{ID: media.ID(id), Collection: col}.Key()] = true
		}
	}
	return keys, nil
}

func keep(items []media.Item, match func(media.Item) bool) []media.Item {
	out := make([]media.Item, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	col, err := media.ParseCollection(args[0])
	if err != nil {
		return err
	}

	item, err := current.catalog.Get(ctx, col, args[1])
	if err != nil {
		return err
	}

	bookmarked := false
	if current.store.Authenticated() {
		if userID, err := currentUserID(ctx); err == nil {
			if bookmarked, err = current.bookmarks.IsBookmarked(ctx, item.ID.String(), col, userID); err != nil {
				current.logger.Warn().Err(err).Msg("Could not check bookmark status")
			}
		}
	}

	formatter := media.NewConsoleFormatter(current.client.AssetURL)
	return render(cmd, item, func() string {
		return formatter.FormatItem(item, bookmarked)
	})
}

