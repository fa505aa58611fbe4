package media

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	UnknownTitle    = "Unknown Movie"
	UnknownQuality  = "Unknown"
	UnknownLanguage = "Unknown"
)

var (
	// Order matters: the first tag in these lists found anywhere in the name wins,
	// regardless of where in the name it appears.
	QualityTags   = []string{"4K", "2160p", "1080p", "720p", "480p", "HDRip", "BluRay", "WEBRip"}
	LanguageTags  = []string{"Hindi", "English", "Tamil", "Telugu", "Malayalam", "Kannada"}
	extensionRx   = regexp.MustCompile(`\.[^.]+$`)
	yearRx        = regexp.MustCompile(`\d{4}`)
	qualityRx     = tagMatcher(QualityTags)
	languageRx    = tagMatcher(LanguageTags)
	punctuationRx = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// ParsedMetadata is the information we're able to scrape from
// a filename alone. A year of 0 indicates no year could be found.
type ParsedMetadata struct {
	Title    string
	Year     int
	Quality  string
	Language string
}

// Parse scrapes the title, year, quality and language from a media filename. Parsing
// never fails: anything which cannot be found falls back to a default value.
//
// Note that any four digit run is treated as a year and stripped from the
// title, so a title containing a number such as '1917' will lose it.
func Parse(filename string) ParsedMetadata {
	name := extensionRx.ReplaceAllString(filename, "")

	year := 0
	if match := yearRx.FindString(name); match != "" {
		year, _ = strconv.Atoi(match)
	}

	return ParsedMetadata{
		Title:    cleanTitle(name),
		Year:     year,
		Quality:  firstTag(name, QualityTags, UnknownQuality),
		Language: firstTag(name, LanguageTags, UnknownLanguage),
	}
}

// cleanTitle strips every known tag and every year-like run from the
// name, and then replaces any punctuation with whitespace. Tags are removed
// before digit runs so that '1080p' doesn't leave a stray 'p' behind.
func cleanTitle(name string) string {
	title := qualityRx.ReplaceAllString(name, "")
	title = languageRx.ReplaceAllString(title, "")
	title = yearRx.ReplaceAllString(title, "")
	title = punctuationRx.ReplaceAllString(title, " ")
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return UnknownTitle
	}

	return title
}

func firstTag(name string, tags []string, fallback string) string {
	lowered := strings.ToLower(name)
	for _, tag := range tags {
		if strings.Contains(lowered, strings.ToLower(tag)) {
			return tag
		}
	}

	return fallback
}

func tagMatcher(tags []string) *regexp.Regexp {
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = regexp.QuoteMeta(tag)
	}

	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}
