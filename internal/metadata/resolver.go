package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"spotmeta/internal/logger"

	"go.senan.xyz/taglib"
)

const defaultConfidenceThreshold = 0.7

// Resolver tags audio files from catalog matches: it reads existing tags,
// normalizes them, looks the track up, scores the match and writes the
// matched metadata back when confident enough.
type Resolver struct {
	lookup     TrackLookup
	logger     *logger.Logger
	threshold  float64
	httpClient *http.Client

	// Abort reports whether a lookup error should stop the whole run
	// instead of skipping the file (e.g. missing credentials).
	Abort func(error) bool

	// OnFile is called after each file is processed.
	OnFile func()
}

// Stats summarizes a Resolve run.
type Stats struct {
	Total     int
	Tagged    int
	Unmatched int
	Failed    int

	// TaggedFiles lists the files whose tags were rewritten, in order.
	TaggedFiles []string
}

// NewResolver creates a new Resolver backed by lookup.
// If threshold is 0, the default (0.7) is used.
func NewResolver(lookup TrackLookup, log *logger.Logger, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	return &Resolver{
		lookup:     lookup,
		logger:     log,
		threshold:  threshold,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Resolve processes the given audio files in order.
func (r *Resolver) Resolve(ctx context.Context, files []string) (Stats, error) {
	stats := Stats{Total: len(files)}
	r.logger.Info("=== Resolving metadata for %d files ===", len(files))

	for i, path := range files {
		select {
		case <-ctx.Done():
			return stats, fmt.Errorf("metadata resolution cancelled: %w", ctx.Err())
		default:
		}

		r.logger.Debug("[%d/%d] Processing: %s", i+1, len(files), path)

		tagged, err := r.resolveFile(ctx, path)
		if r.OnFile != nil {
			r.OnFile()
		}
		switch {
		case err != nil && r.Abort != nil && r.Abort(err):
			return stats, err
		case err != nil:
			r.logger.Warn("[%d/%d] Failed to resolve metadata: %v", i+1, len(files), err)
			stats.Failed++
		case tagged:
			stats.Tagged++
			stats.TaggedFiles = append(stats.TaggedFiles, path)
		default:
			stats.Unmatched++
		}
	}

	if stats.Total > 0 && stats.Failed == stats.Total {
		return stats, fmt.Errorf("all %d files failed metadata resolution", stats.Total)
	}
	if stats.Failed > 0 {
		r.logger.Warn("%d of %d files failed metadata resolution", stats.Failed, stats.Total)
	}

	r.logger.Info("Metadata resolution completed: %d tagged, %d unmatched", stats.Tagged, stats.Unmatched)
	return stats, nil
}

func (r *Resolver) resolveFile(ctx context.Context, path string) (bool, error) {
	existingTags, err := taglib.ReadTags(path)
	if err != nil {
		return false, fmt.Errorf("failed to read existing tags: %w", err)
	}

	rawTitle := firstTag(existingTags, taglib.Title)
	rawArtist := firstTag(existingTags, taglib.Artist)

	if rawTitle == "" {
		r.logger.Debug("  Skipping: no title metadata")
		return false, nil
	}

	query := NormalizeQuery(rawTitle, rawArtist)
	r.logger.Debug("  Normalized: title=%q artist=%q", query.Title, query.Artist)

	if query.Title == "" {
		return false, nil
	}

	best, err := r.lookup.LookupTrack(ctx, query)
	if errors.Is(err, ErrNoMatch) {
		r.logger.Debug("  No match for %q", query.Title)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("track lookup failed: %w", err)
	}

	best.Confidence = score(query, best)
	r.logger.Debug("  Best match: %q by %q (confidence: %.2f)", best.Title, best.Artist, best.Confidence)

	if best.Confidence < r.threshold {
		r.logger.Debug("  Confidence %.2f below threshold %.2f, keeping original tags", best.Confidence, r.threshold)
		return false, nil
	}

	if err := WriteTags(path, best); err != nil {
		return false, fmt.Errorf("failed to write tags: %w", err)
	}

	if best.ArtworkURL != "" {
		if err := r.downloadAndEmbedArtwork(ctx, path, best.ArtworkURL); err != nil {
			r.logger.Warn("  Failed to embed artwork: %v", err)
		}
	}

	return true, nil
}

func (r *Resolver) downloadAndEmbedArtwork(ctx context.Context, filePath, artworkURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create artwork request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("artwork download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read artwork data: %w", err)
	}

	return WriteArtwork(filePath, data)
}

// score computes a similarity score (0.0-1.0) between the query and a result.
func score(query SearchQuery, result TrackInfo) float64 {
	titleScore := similarity(normalize(query.Title), normalize(result.Title))
	artistScore := similarity(normalize(query.Artist), normalize(result.Artist))

	if query.Artist == "" {
		return titleScore
	}
	// Weight: 60% title, 40% artist
	return titleScore*0.6 + artistScore*0.4
}

// similarity returns how similar two strings are (0.0-1.0), comparing both
// the compact (space-free) forms and the token overlap.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	if strings.ReplaceAll(a, " ", "") == strings.ReplaceAll(b, " ", "") {
		return 1.0
	}

	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	matches := 0
	for _, t := range tokensA {
		if setB[t] {
			matches++
		}
	}

	return float64(matches) / float64(max(len(tokensA), len(tokensB)))
}

// normalize lowercases and strips non-alphanumeric characters for comparison.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
