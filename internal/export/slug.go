package export

import (
	"regexp"
	"strings"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]`)

// Slug derives a file name stem from a record title: lowercased, with every
// character outside a-z and 0-9 replaced by an underscore.
func Slug(title string) string {
	return nonSlugRe.ReplaceAllString(strings.ToLower(title), "_")
}

// Filename returns the download name for a title and format.
func Filename(title string, f Format) string {
	return Slug(title) + "." + f.Extension()
}
