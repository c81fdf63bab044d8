package record

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Feeds lists the known source feed filenames in canonical read order.
// Not every subject has every feed; missing feeds are skipped.
var Feeds = []string{
	"lifelog.jsonl",
	"emails.jsonl",
	"calendar.jsonl",
	"social_posts.jsonl",
	"transactions.jsonl",
	"conversations.jsonl",
	"files_index.jsonl",
}

// ProfileFile is the mandatory subject metadata file within a source root.
const ProfileFile = "subject_profile.json"

// ErrProfileMissing is returned when the source root has no profile file.
var ErrProfileMissing = errors.New("subject profile missing")

// ErrSourceRootInvalid is returned when the given location is not a
// readable directory.
var ErrSourceRootInvalid = errors.New("source root invalid")

// LoadResult holds the outcome of loading one subject's feeds.
type LoadResult struct {
	Profile Profile

	// Records is the deduplicated record list, ordered by canonical feed
	// order then line order.
	Records []RawRecord

	// TotalLoaded counts records read before deduplication.
	TotalLoaded int

	// DuplicatesRemoved counts records dropped because an earlier record
	// had the same trimmed text body.
	DuplicatesRemoved int
}

// Loader reads and deduplicates subject feeds from a directory.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader that logs skipped feeds and malformed lines
// to the given logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the subject profile and all known feeds under root, then
// deduplicates records by SHA-256 of the trimmed text body. The first
// occurrence wins; later duplicates are dropped even across feeds.
//
// Load is purely functional over the directory contents: loading the same
// root twice yields identical results.
func (l *Loader) Load(root string) (*LoadResult, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceRootInvalid, root)
	}

	profile, err := l.loadProfile(root)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Profile: profile}
	seen := make(map[string]struct{})

	for _, feed := range Feeds {
		path := filepath.Join(root, feed)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("skipping missing feed", "feed", feed)
			continue
		}

		loaded, err := l.loadFeed(path, feed, seen, result)
		if err != nil {
			return nil, err
		}
		l.logger.Info("loaded feed", "feed", feed, "records", loaded)
	}

	l.logger.Info("deduplication complete",
		"total", result.TotalLoaded,
		"unique", len(result.Records),
		"duplicates_removed", result.DuplicatesRemoved,
	)

	return result, nil
}

func (l *Loader) loadProfile(root string) (Profile, error) {
	data, err := os.ReadFile(filepath.Join(root, ProfileFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, fmt.Errorf("%w: no %s in %s", ErrProfileMissing, ProfileFile, root)
		}
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	return profile, nil
}

// loadFeed reads one JSONL feed line by line. Malformed lines are skipped
// with a warning; they never abort the feed or the run.
func (l *Loader) loadFeed(path, feed string, seen map[string]struct{}, result *LoadResult) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening feed %s: %w", feed, err)
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec RawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			l.logger.Warn("skipping malformed line",
				"feed", feed, "line", lineNum, "error", err)
			continue
		}

		result.TotalLoaded++
		loaded++

		key := TextHash(rec.Text)
		if _, dup := seen[key]; dup {
			result.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		result.Records = append(result.Records, rec)
	}

	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("reading feed %s: %w", feed, err)
	}
	return loaded, nil
}

// TextHash returns the hex SHA-256 of the trimmed text body, the dedup key
// for a record.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
