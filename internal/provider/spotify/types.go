package spotify

// Image is an artwork rendition.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExternalURLs holds the public web links of an entity.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SimpleArtist is the artist reference embedded in albums and tracks.
type SimpleArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Artist is the full artist object.
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Popularity   int          `json:"popularity"`
	Images       []Image      `json:"images"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// SimpleTrack is the track reference listed inside an album.
type SimpleTrack struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Artists      []SimpleArtist `json:"artists"`
	TrackNumber  int            `json:"track_number"`
	DiscNumber   int            `json:"disc_number"`
	DurationMs   int            `json:"duration_ms"`
	ExternalURLs ExternalURLs   `json:"external_urls"`
}

// Album is the album object. Tracks is only populated by album lookups.
type Album struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	AlbumType            string         `json:"album_type"`
	Artists              []SimpleArtist `json:"artists"`
	ReleaseDate          string         `json:"release_date"`
	ReleaseDatePrecision string         `json:"release_date_precision"`
	TotalTracks          int            `json:"total_tracks"`
	Images               []Image        `json:"images"`
	Label                string         `json:"label"`
	ExternalURLs         ExternalURLs   `json:"external_urls"`
	Tracks               struct {
		Items []SimpleTrack `json:"items"`
		Total int           `json:"total"`
	} `json:"tracks"`
}

// Track is the full track object.
type Track struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Artists      []SimpleArtist `json:"artists"`
	Album        Album          `json:"album"`
	TrackNumber  int            `json:"track_number"`
	DiscNumber   int            `json:"disc_number"`
	DurationMs   int            `json:"duration_ms"`
	Explicit     bool           `json:"explicit"`
	ExternalIDs  struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

type searchResponse struct {
	Artists *searchPage `json:"artists"`
	Albums  *searchPage `json:"albums"`
	Tracks  *searchPage `json:"tracks"`
}

type searchPage struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r searchResponse) items(kind Kind) []searchItem {
	var page *searchPage
	switch kind {
	case KindArtist:
		page = r.Artists
	case KindAlbum:
		page = r.Albums
	case KindTrack:
		page = r.Tracks
	}
	if page == nil {
		return nil
	}
	return page.Items
}
