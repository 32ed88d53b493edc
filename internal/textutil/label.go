package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Label turns a machine identifier such as "merge_failed" or "add-clip" into
// a display label ("Merge Failed", "Add Clip").
func Label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.NewReplacer("_", " ", "-", " ").Replace(value)
	return titleCaser.String(CollapseSpace(value))
}
