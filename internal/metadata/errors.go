package metadata

import "errors"

// ErrNoMatch is returned by a TrackLookup that found no candidate.
var ErrNoMatch = errors.New("no matching track")
