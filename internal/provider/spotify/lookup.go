package spotify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spotmeta/internal/metadata"
)

// LookupTrack resolves a query to full track metadata: it searches for the
// track, fetches its details and enriches them with the primary artist's
// genres. It implements metadata.TrackLookup.
func (c *Client) LookupTrack(ctx context.Context, query metadata.SearchQuery) (metadata.TrackInfo, error) {
	if query.Title == "" {
		return metadata.TrackInfo{}, fmt.Errorf("%w: empty title", metadata.ErrNoMatch)
	}

	id, err := c.SearchTrack(ctx, query.Artist, query.Title)
	if err != nil {
		return metadata.TrackInfo{}, asNoMatch(err)
	}

	track, err := c.Track(ctx, id)
	if err != nil {
		return metadata.TrackInfo{}, asNoMatch(err)
	}

	info := trackInfo(track)
	if len(track.Artists) > 0 && track.Artists[0].ID != "" {
		if genres, err := c.artistGenres(ctx, track.Artists[0].ID); err == nil && len(genres) > 0 {
			info.Genre = formatGenres(genres)
		}
	}
	return info, nil
}

func asNoMatch(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", metadata.ErrNoMatch, err)
	}
	return err
}

// artistGenres returns genres for an artist, using the cache when available.
func (c *Client) artistGenres(ctx context.Context, artistID string) ([]string, error) {
	c.cacheMu.Lock()
	if genres, ok := c.genreCache[artistID]; ok {
		c.cacheMu.Unlock()
		return genres, nil
	}
	c.cacheMu.Unlock()

	artist, err := c.Artist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.genreCache[artistID] = artist.Genres
	c.cacheMu.Unlock()

	return artist.Genres, nil
}

func trackInfo(t *Track) metadata.TrackInfo {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	var albumArtist string
	if len(t.Album.Artists) > 0 {
		albumArtist = t.Album.Artists[0].Name
	}

	var artworkURL string
	if len(t.Album.Images) > 0 {
		artworkURL = t.Album.Images[0].URL
	}

	return metadata.TrackInfo{
		SpotifyID:   t.ID,
		Title:       t.Name,
		Artist:      strings.Join(artists, ", "),
		Album:       t.Album.Name,
		AlbumArtist: albumArtist,
		TrackNumber: t.TrackNumber,
		TotalTracks: t.Album.TotalTracks,
		DiscNumber:  t.DiscNumber,
		Year:        parseYear(t.Album.ReleaseDate),
		ReleaseDate: t.Album.ReleaseDate,
		ISRC:        t.ExternalIDs.ISRC,
		ArtworkURL:  artworkURL,
		Duration:    time.Duration(t.DurationMs) * time.Millisecond,
	}
}

// formatGenres title-cases and joins genres (max 3).
func formatGenres(genres []string) string {
	n := min(len(genres), 3)
	formatted := make([]string, n)
	for i := 0; i < n; i++ {
		formatted[i] = titleCase(genres[i])
	}
	return strings.Join(formatted, ", ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func parseYear(releaseDate string) int {
	if len(releaseDate) >= 4 {
		if y, err := strconv.Atoi(releaseDate[:4]); err == nil {
			return y
		}
	}
	return 0
}
