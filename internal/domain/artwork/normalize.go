package artwork

import "strings"

// artistSeparator joins multiple credited artists in Roon metadata.
const artistSeparator = " / "

// featMarker starts the featured-artist clause in track and album titles.
// Matching on the raw substring is deliberate: upstream metadata is not
// formally specified, and the annotation causes false-negative searches.
const featMarker = " (feat."

// PrimaryArtist returns the first credited artist. Roon may join several
// artists with " / " and only the first reliably matches search indexes.
func PrimaryArtist(artist string) string {
	if i := strings.Index(artist, artistSeparator); i >= 0 {
		return artist[:i]
	}
	return artist
}

// StripFeatClause removes a trailing " (feat. ...)" clause.
func StripFeatClause(title string) string {
	if i := strings.Index(title, featMarker); i >= 0 {
		return title[:i]
	}
	return title
}
