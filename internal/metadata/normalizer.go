package metadata

import (
	"regexp"
	"strings"
)

// Bracketed qualifiers that only add noise to a catalog search.
var noiseQualifiers = []string{
	`official\s+(?:music\s+)?video`,
	`official\s+audio`,
	`official\s+lyric\s+video`,
	`official\s+visualizer`,
	`lyrics?`,
	`visual(?:izer)?`,
	`audio`,
	`hd`,
	`hq`,
	`4k`,
	`explicit`,
	`clean`,
	`remaster(?:ed)?(?:\s+\d{4})?`,
}

var noisePattern = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:` + strings.Join(noiseQualifiers, "|") + `)\s*[\)\]]`)

var featuringPattern = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s+([^\)\]]+)[\)\]]`)

// Leading track numbers as found in ripped file titles: "01 - Title", "3. Title".
var trackNumberPrefix = regexp.MustCompile(`^\d{1,3}\s*[-.]\s+`)

var vevoPattern = regexp.MustCompile(`(?i)vevo$`)

var artistTitleSeparator = regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+)$`)

// NormalizeQuery turns raw title/artist tags into a SearchQuery suitable for
// a track lookup.
func NormalizeQuery(title, artist string) SearchQuery {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(vevoPattern.ReplaceAllString(strings.TrimSpace(artist), ""))

	if title == "" {
		return SearchQuery{Artist: artist}
	}

	title = noisePattern.ReplaceAllString(title, "")
	title = featuringPattern.ReplaceAllString(title, "")
	title = trackNumberPrefix.ReplaceAllString(title, "")

	if artist == "" {
		if m := artistTitleSeparator.FindStringSubmatch(title); m != nil {
			artist = m[1]
			title = m[2]
		}
	}

	return SearchQuery{
		Title:  strings.TrimSpace(title),
		Artist: strings.TrimSpace(artist),
	}
}
