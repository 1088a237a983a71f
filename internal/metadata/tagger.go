package metadata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"
)

// SpotifyTrackIDTag is the custom property holding the matched Spotify track id.
const SpotifyTrackIDTag = "SPOTIFY_TRACK_ID"

// WriteTags writes the given TrackInfo metadata to an audio file. Empty
// fields leave the corresponding tag untouched.
func WriteTags(path string, info TrackInfo) error {
	if err := taglib.WriteTags(path, tagMap(info), 0); err != nil {
		return fmt.Errorf("failed to write tags to %s: %w", path, err)
	}
	return nil
}

func tagMap(info TrackInfo) map[string][]string {
	tags := make(map[string][]string)
	set := func(key, value string) {
		if value != "" {
			tags[key] = []string{value}
		}
	}

	set(taglib.Title, info.Title)
	set(taglib.Artist, info.Artist)
	set(taglib.Album, info.Album)
	set(taglib.AlbumArtist, info.AlbumArtist)
	set(taglib.Genre, info.Genre)
	set(taglib.ISRC, info.ISRC)
	set(SpotifyTrackIDTag, info.SpotifyID)

	if info.TrackNumber > 0 {
		set(taglib.TrackNumber, strconv.Itoa(info.TrackNumber))
	}
	if info.DiscNumber > 0 {
		set(taglib.DiscNumber, strconv.Itoa(info.DiscNumber))
	}
	switch {
	case info.ReleaseDate != "":
		set(taglib.Date, info.ReleaseDate)
	case info.Year > 0:
		set(taglib.Date, strconv.Itoa(info.Year))
	}
	return tags
}

// SubDirFromTags reads an audio file's tags and returns an "Artist/Album"
// subdirectory path for organizing files. Returns "" if tags can't be read.
func SubDirFromTags(path string) string {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return ""
	}

	artist := firstTag(tags, taglib.AlbumArtist)
	if artist == "" {
		artist = firstTag(tags, taglib.Artist)
		if i := strings.Index(artist, ","); i > 0 {
			artist = strings.TrimSpace(artist[:i])
		}
	}
	album := firstTag(tags, taglib.Album)

	if artist == "" {
		artist = "Unknown Artist"
	}
	if album == "" {
		album = "Unknown Album"
	}

	return filepath.Join(sanitizePath(artist), sanitizePath(album))
}

var pathReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// sanitizePath replaces characters that are problematic in file paths.
func sanitizePath(s string) string {
	return pathReplacer.Replace(strings.TrimSpace(s))
}

// WriteArtwork embeds artwork image data into an audio file.
func WriteArtwork(path string, imageData []byte) error {
	if len(imageData) == 0 {
		return nil
	}
	if err := taglib.WriteImage(path, imageData); err != nil {
		return fmt.Errorf("failed to write artwork to %s: %w", path, err)
	}
	return nil
}
