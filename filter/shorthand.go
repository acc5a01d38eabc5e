package filter

import (
	"fmt"
	"regexp"
	"strings"
)

type rewrite struct {
	pattern *regexp.Regexp
	replace func(m []string) string
}

// rewrites turn field:"value" terms into expr calls
var rewrites = []rewrite{
	{regexp.MustCompile(`title(!?):"([^"]*)"`), func(m []string) string {
		return negate(m[1], fmt.Sprintf(`contains(Title, %q)`, m[2]))
	}},
	{regexp.MustCompile(`genre(!?):"([^"]*)"`), func(m []string) string {
		return negate(m[1], fmt.Sprintf(`hasGenre(%q)`, m[2]))
	}},
	{regexp.MustCompile(`status(!?):"([^"]*)"`), func(m []string) string {
		return negate(m[1], fmt.Sprintf(`lower(Status) == lower(%q)`, m[2]))
	}},
	{regexp.MustCompile(`type(!?):(movies?|shows?|tv)\b`), func(m []string) string {
		call := "isShow()"
		if strings.HasPrefix(m[2], "movie") {
			call = "isMovie()"
		}
		return negate(m[1], call)
	}},
	{regexp.MustCompile(`added_before:"(\d{4}-\d{2}-\d{2})"`), func(m []string) string {
		return fmt.Sprintf(`DateCreated < parseDate(%q)`, m[1])
	}},
	{regexp.MustCompile(`added_after:"(\d{4}-\d{2}-\d{2})"`), func(m []string) string {
		return fmt.Sprintf(`DateCreated > parseDate(%q)`, m[1])
	}},
}

var shorthandPrefixes = []string{"title:", "title!:", "genre:", "genre!:", "status:", "status!:", "type:", "type!:", "added_before:", "added_after:"}

func negate(bang, expr string) string {
	if bang == "!" {
		return "not " + expr
	}
	return expr
}

// IsShorthand reports whether expression uses field:"value" terms
func IsShorthand(expression string) bool {
	for _, prefix := range shorthandPrefixes {
		if strings.Contains(expression, prefix) {
			return true
		}
	}
	return false
}

// ConvertShorthand rewrites field:"value" terms and AND/OR/NOT keywords into
// expr syntax. Other text is left untouched.
func ConvertShorthand(expression string) string {
	out := strings.TrimSpace(expression)
	out = strings.ReplaceAll(out, " AND ", " and ")
	out = strings.ReplaceAll(out, " OR ", " or ")
	out = strings.ReplaceAll(out, " NOT ", " not ")
	out = strings.ReplaceAll(out, "(NOT ", "(not ")
	if rest, ok := strings.CutPrefix(out, "NOT "); ok {
		out = "not " + rest
	}

	for _, rw := range rewrites {
		out = rw.pattern.ReplaceAllStringFunc(out, func(match string) string {
			return rw.replace(rw.pattern.FindStringSubmatch(match))
		})
	}
	return out
}
