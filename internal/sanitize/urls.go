package sanitize

import (
	"html/template"
	"net/url"
	"strings"
)

// ImageURL returns raw as a trusted template URL when it is an http(s),
// file or data:image URL. Anything else yields "".
func ImageURL(raw string) template.URL {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "data:image/") {
		return template.URL(raw)
	}
	return resourceURL(raw)
}

// StylesheetURL returns raw as a trusted template URL when it is an http(s)
// or file URL. Anything else yields "".
func StylesheetURL(raw string) template.URL {
	return resourceURL(strings.TrimSpace(raw))
}

func resourceURL(raw string) template.URL {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "file":
		return template.URL(raw)
	}
	return ""
}

// LogoWarning describes a letterhead logo that will not be shown, or
// returns "" when the logo is usable or absent.
func LogoWarning(raw string) string {
	if strings.TrimSpace(raw) == "" || ImageURL(raw) != "" {
		return ""
	}
	return "logo URL not allowed, letterhead shown without logo: " + raw
}
