package combatlog

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

const minChunkSize = 256

// Stats summarises a single Build run.
type Stats struct {
	// Lines is the number of candidate lines given to Build.
	Lines int `json:"lines"`
	// Events is the number of entries returned.
	Events int `json:"events"`
	// Ignored counts recognised lines that produce no event, such as creature kills.
	Ignored int `json:"ignored"`
	// Malformed counts lines skipped because a number did not fit an int64.
	Malformed int `json:"malformed"`
	// Duplicates counts events collapsed by DedupLegacy.
	Duplicates int `json:"duplicates"`
}

func (s *Stats) add(other Stats) {
	s.Lines += other.Lines
	s.Events += other.Events
	s.Ignored += other.Ignored
	s.Malformed += other.Malformed
	s.Duplicates += other.Duplicates
}

type partition struct {
	entries []Entry
	stats   Stats
}

// Build parses every candidate line and stamps the resulting entries with matchID. Lines are split into
// contiguous chunks that are parsed concurrently and concatenated back in source order.
func (p *Parser) Build(lines []string, matchID int64) ([]Entry, Stats, error) {
	if len(lines) == 0 {
		return nil, Stats{}, ErrEmptyLog
	}

	chunks := chunk(lines, p.opts.Workers)
	results := make([]partition, len(chunks))

	var group errgroup.Group

	group.SetLimit(p.opts.Workers)

	for idx, lines := range chunks {
		group.Go(func() error {
			results[idx] = p.buildPartition(lines, matchID)

			return nil
		})
	}

	if errWait := group.Wait(); errWait != nil {
		return nil, Stats{}, errWait
	}

	var (
		stats   Stats
		entries = make([]Entry, 0, len(lines))
	)

	for _, result := range results {
		stats.add(result.stats)
		entries = append(entries, result.entries...)
	}

	if p.opts.Dedup == DedupLegacy {
		entries = dedup(entries)
		stats.Duplicates = stats.Events - len(entries)
		stats.Events = len(entries)
	}

	return entries, stats, nil
}

func (p *Parser) buildPartition(lines []string, matchID int64) partition {
	result := partition{
		entries: make([]Entry, 0, len(lines)),
		stats:   Stats{Lines: len(lines)},
	}

	for _, line := range lines {
		entry, errEntry := p.ParseLine(line)
		if errEntry != nil {
			switch {
			case errors.Is(errEntry, ErrIgnored):
				result.stats.Ignored++
			case errors.Is(errEntry, ErrMalformedNumber):
				result.stats.Malformed++
			}

			continue
		}

		entry.MatchID = matchID
		result.entries = append(result.entries, entry)
	}

	result.stats.Events = len(result.entries)

	return result
}

// Parse is Split followed by Build.
func (p *Parser) Parse(raw string, matchID int64) ([]Entry, Stats, error) {
	return p.Build(p.Split(raw), matchID)
}

func chunk(lines []string, workers int) [][]string {
	size := (len(lines) + workers - 1) / workers
	if size < minChunkSize {
		size = minChunkSize
	}

	chunks := make([][]string, 0, (len(lines)+size-1)/size)

	for start := 0; start < len(lines); start += size {
		end := min(start+size, len(lines))
		chunks = append(chunks, lines[start:end])
	}

	return chunks
}

// dedup keeps the first occurrence of each value-equal entry.
func dedup(entries []Entry) []Entry {
	seen := make(map[Entry]struct{}, len(entries))
	unique := entries[:0]

	for _, entry := range entries {
		if _, found := seen[entry]; found {
			continue
		}

		seen[entry] = struct{}{}
		unique = append(unique, entry)
	}

	return unique
}
