package spotify

import (
	"context"
	"fmt"
	"net/url"
)

// EntityDetails fetches the full JSON object of an artist, album or track.
func (c *Client) EntityDetails(ctx context.Context, kind Kind, id string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.details(ctx, kind, id, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Album fetches an album, including its track listing.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	var album Album
	if err := c.details(ctx, KindAlbum, id, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Track fetches a track.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	var track Track
	if err := c.details(ctx, KindTrack, id, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Artist fetches an artist.
func (c *Client) Artist(ctx context.Context, id string) (*Artist, error) {
	var artist Artist
	if err := c.details(ctx, KindArtist, id, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (c *Client) details(ctx context.Context, kind Kind, id string, out interface{}) error {
	path, err := detailPath(kind, id)
	if err != nil {
		return err
	}

	var params url.Values
	if c.market != "" {
		params = url.Values{"market": {c.market}}
	}

	if err := c.get(ctx, path, params, out); err != nil {
		c.logFailure(fmt.Sprintf("%s lookup %s", kind, id), err)
		return err
	}
	return nil
}

func detailPath(kind Kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty %s id", ErrNotFound, kind)
	}
	switch kind {
	case KindArtist, KindAlbum, KindTrack:
		return "/" + string(kind) + "s/" + url.PathEscape(id), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}
