package media

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ConsoleFormatter renders items for the terminal
type ConsoleFormatter struct {
	// AssetURL turns a thumbnail file ID into a URL; nil hides thumbnails
	AssetURL func(fileID string) string
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(assetURL func(string) string) *ConsoleFormatter {
	return &ConsoleFormatter{AssetURL: assetURL}
}

// FormatItemList formats a list of items for console display
func (f *ConsoleFormatter) FormatItemList(col Collection, items []Item, bookmarked map[string]bool) string {
	if len(items) == 0 {
		return fmt.Sprintf("No %s found\n", strings.ReplaceAll(col.String(), "_", " "))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", strings.ReplaceAll(col.String(), "_", " "), len(items))

	for i, item := range items {
		isLast := i == len(items)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}

		marker := ""
		if bookmarked[item.ID.String()] {
			marker = " ★"
		}
		fmt.Fprintf(&sb, "%s── %s%s [%s]\n", prefix, item.Title, marker, item.ID)

		indent := "│   "
		if isLast {
			indent = "    "
		}
		if item.Genre != "" {
			fmt.Fprintf(&sb, "%sGenre: %s\n", indent, item.Genre)
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatItem formats a single item's details
func (f *ConsoleFormatter) FormatItem(item Item, bookmarked bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s", item.Title)
	if bookmarked {
		sb.WriteString(" ★")
	}
	fmt.Fprintf(&sb, "\n%s\n", strings.Repeat("─", max(len(item.Title), 10)))

	fmt.Fprintf(&sb, "Type:    %s\n", item.Collection.Label())
	fmt.Fprintf(&sb, "ID:      %s\n", item.ID)
	if item.Genre != "" {
		fmt.Fprintf(&sb, "Genre:   %s\n", item.Genre)
	}
	if item.Status != "" {
		fmt.Fprintf(&sb, "Status:  %s\n", item.Status)
	}
	if item.DateCreated != nil {
		fmt.Fprintf(&sb, "Added:   %s\n", item.DateCreated.Format("2006-01-02"))
	}
	if item.MediaURL != "" {
		if embed, err := EmbedURL(item.MediaURL); err == nil {
			fmt.Fprintf(&sb, "Watch:   %s\n", embed)
		} else {
			fmt.Fprintf(&sb, "Watch:   %s\n", item.MediaURL)
		}
	}
	if item.Thumbnail != "" && f.AssetURL != nil {
		fmt.Fprintf(&sb, "Poster:  %s\n", f.AssetURL(item.Thumbnail))
	}
	if item.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", item.Description)
	}

	return sb.String()
}

// FormatBookmarks formats resolved bookmarks grouped by collection
func (f *ConsoleFormatter) FormatBookmarks(items []BookmarkedItem) string {
	if len(items) == 0 {
		return "No bookmarks yet\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nBookmark")
	if len(items) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(items))

	for i, item := range items {
		isLast := i == len(items)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %s (%s) [%s]\n", prefix, item.Title, item.Collection.Label(), item.ID)

		if item.Thumbnail != "" && f.AssetURL != nil {
			indent := "│   "
			if isLast {
				indent = "    "
			}
			fmt.Fprintf(&sb, "%sPoster: %s\n", indent, f.AssetURL(item.Thumbnail))
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// Render writes v as JSON or YAML
func Render(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
