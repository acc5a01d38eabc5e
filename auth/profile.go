package auth

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// hiddenFields are user record fields never shown on the profile
var hiddenFields = map[string]bool{
	"id":                  true,
	"role":                true,
	"last_page":           true,
	"avatar":              true,
	"provider":            true,
	"external_identifier": true,
	"token":               true,
	"status":              true,
	"theme":               true,
	"last_access":         true,
	"email_notifications": true,
	"password":            true,
}

// Field is a displayable profile entry
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// ProfileFields turns a user record into labelled fields sorted by key,
// leaving out internal fields and null values.
func ProfileFields(record map[string]any) []Field {
	fields := make([]Field, 0, len(record))
	for key, value := range record {
		if hiddenFields[key] || value == nil {
			continue
		}
		fields = append(fields, Field{
			Key:   key,
			Label: FormatLabel(key),
			Value: FormatValue(value),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// Editable reports whether key may be changed through UpdateProfile
func Editable(key string) bool {
	return !hiddenFields[key] && key != "email"
}

// FormatLabel turns snake_case into Title Case
func FormatLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// FormatValue renders a record value for display
func FormatValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case time.Time:
		return v.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
