package metadata

import (
	"context"
	"time"
)

// TrackInfo contains metadata for a single audio track.
type TrackInfo struct {
	SpotifyID   string
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	Year        int
	ReleaseDate string // full date "2020-03-20" when available
	Genre       string
	ISRC        string
	ArtworkURL  string
	Duration    time.Duration
	Confidence  float64 // 0.0-1.0, how confident we are in the match
}

// SearchQuery represents a cleaned-up query for a track lookup.
type SearchQuery struct {
	Title  string
	Artist string
}

// TrackLookup finds the best catalog match for a query. Implementations
// return an error matching ErrNoMatch (via errors.Is) when nothing matches.
type TrackLookup interface {
	LookupTrack(ctx context.Context, query SearchQuery) (TrackInfo, error)
}
