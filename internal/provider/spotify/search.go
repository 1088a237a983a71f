package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind is a searchable entity type.
type Kind string

const (
	KindArtist Kind = "artist"
	KindAlbum  Kind = "album"
	KindTrack  Kind = "track"
)

// ParseKind converts "artist", "album" or "track" (any case, singular or
// plural) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")); k {
	case KindArtist, KindAlbum, KindTrack:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// SearchArtist returns the Spotify ID of the best artist match for name.
func (c *Client) SearchArtist(ctx context.Context, name string) (string, error) {
	return c.SearchEntity(ctx, KindArtist, name, "")
}

// SearchAlbum returns the Spotify ID of the best album match. The artist is
// not part of the query; see buildSearchQuery.
func (c *Client) SearchAlbum(ctx context.Context, artist, album string) (string, error) {
	return c.SearchEntity(ctx, KindAlbum, album, artist)
}

// SearchTrack returns the Spotify ID of the best match for track by artist.
func (c *Client) SearchTrack(ctx context.Context, artist, track string) (string, error) {
	return c.SearchEntity(ctx, KindTrack, track, artist)
}

// SearchEntity runs a single-result search and returns the first item's ID.
// An empty result list yields ErrNotFound.
func (c *Client) SearchEntity(ctx context.Context, kind Kind, query, artist string) (string, error) {
	q, err := buildSearchQuery(kind, query, artist)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"q":     {q},
		"type":  {string(kind)},
		"limit": {"1"},
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		c.logFailure(fmt.Sprintf("%s search for %q", kind, q), err)
		return "", err
	}

	items := resp.items(kind)
	if len(items) == 0 {
		c.logger.Debug("No results found for %s: %q", kind, q)
		return "", fmt.Errorf("%w: %s %q", ErrNotFound, kind, q)
	}

	c.logger.Debug("%s ID for %q: %s", kind, q, items[0].ID)
	return items[0].ID, nil
}

// buildSearchQuery builds the q parameter for kind.
//
// Album queries use the album name only; the artist is accepted but does not
// scope the search. Track queries are scoped with an "artist:" filter when an
// artist is given.
func buildSearchQuery(kind Kind, query, artist string) (string, error) {
	switch kind {
	case KindArtist, KindAlbum:
		return query, nil
	case KindTrack:
		if artist == "" {
			return query, nil
		}
		return fmt.Sprintf("%s artist:%s", query, artist), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

// logFailure records a failed operation. Configuration errors are left to the
// caller, and token failures were already logged when they happened.
func (c *Client) logFailure(op string, err error) {
	switch {
	case IsConfigurationError(err), errors.Is(err, ErrTokenUnavailable):
	case errors.Is(err, ErrNotFound):
		c.logger.Debug("Spotify %s: not found", op)
	default:
		c.logger.Error("Spotify %s failed: %v", op, err)
	}
}
