package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiist007/JSpeak/internal/observability"
)

const maxHistory = 500

// Patterns for hotword candidates: capitalized Latin words, acronyms,
// letter/digit mixes and CJK-then-Latin compounds.
var (
	reCapitalized = regexp.MustCompile(`\b[A-Z][A-Za-z0-9_\-]{2,}\b`)
	reAcronym     = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	reMixed       = regexp.MustCompile(`[A-Za-z]+[0-9]+|[0-9]+[A-Za-z]+`)
	reCJKLatin    = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2,}[A-Za-z]{2,}`)
)

// hotword tracks how often a candidate term appears in finalized transcripts
type hotword struct {
	Count    int   `json:"count"`
	LastSeen int64 `json:"last_seen"`
}

type transcript struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type stats struct {
	TotalTranscripts  int `json:"total_transcripts"`
	LastHotwordUpdate int `json:"last_hotword_update"`
}

type fileData struct {
	Version     string             `json:"version"`
	Hotwords    map[string]hotword `json:"hotwords"`
	Transcripts []transcript       `json:"transcripts"`
	Stats       stats              `json:"stats"`
}

// Lexicon learns recurring proper nouns, acronyms and mixed-script terms from
// the user's finalized transcripts and surfaces them as recognition hints.
// State persists as JSON so personalization survives restarts.
type Lexicon struct {
	mu     sync.Mutex
	path   string
	data   fileData
	logger zerolog.Logger
}

// Open loads the lexicon at path, starting fresh when the file is missing or
// unreadable.
func Open(path string) (*Lexicon, error) {
	if path == "" {
		return nil, fmt.Errorf("lexicon path cannot be empty")
	}

	l := &Lexicon{
		path:   path,
		logger: observability.GetLogger().With().Str("component", "lexicon").Logger(),
		data: fileData{
			Version:  "1.0",
			Hotwords: make(map[string]hotword),
		},
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var loaded fileData
		if jsonErr := json.Unmarshal(raw, &loaded); jsonErr == nil {
			if loaded.Hotwords == nil {
				loaded.Hotwords = make(map[string]hotword)
			}
			l.data = loaded
		} else {
			l.logger.Warn().Err(jsonErr).Str("path", path).Msg("Ignoring corrupt lexicon file")
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	return l, nil
}

// RecordTranscript folds one finalized transcript into the lexicon and
// persists it. Empty text is ignored.
func (l *Lexicon) RecordTranscript(text string) {
	if text == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().Unix()
	l.data.Transcripts = append(l.data.Transcripts, transcript{Text: text, Timestamp: now})
	if len(l.data.Transcripts) > maxHistory {
		l.data.Transcripts = l.data.Transcripts[len(l.data.Transcripts)-maxHistory:]
	}
	l.data.Stats.TotalTranscripts++

	for _, word := range findCandidates(text) {
		hw := l.data.Hotwords[word]
		hw.Count++
		hw.LastSeen = now
		l.data.Hotwords[word] = hw
	}

	if l.data.Stats.TotalTranscripts-l.data.Stats.LastHotwordUpdate >= 10 {
		l.data.Stats.LastHotwordUpdate = l.data.Stats.TotalTranscripts
	}

	l.save()
}

// TopHotwords returns the n most frequent hotwords, most frequent first.
// Ties break alphabetically so the ordering is stable.
func (l *Lexicon) TopHotwords(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.topHotwordsLocked(n)
}

func (l *Lexicon) topHotwordsLocked(n int) []string {
	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(l.data.Hotwords))
	for w, hw := range l.data.Hotwords {
		if len(w) >= 2 {
			entries = append(entries, entry{w, hw.Count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})
	if n > len(entries) {
		n = len(entries)
	}
	words := make([]string, 0, n)
	for _, e := range entries[:n] {
		words = append(words, e.word)
	}
	return words
}

// EnrichPrompt appends the user's top hotwords to a recognition prompt so
// personal vocabulary biases decoding. Returns prompt unchanged when there is
// nothing to add.
func (l *Lexicon) EnrichPrompt(prompt string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	words := l.topHotwordsLocked(20)
	if len(words) == 0 {
		return prompt
	}
	section := ""
	for i, w := range words {
		if i > 0 {
			section += ", "
		}
		section += w
	}
	if prompt == "" {
		return section
	}
	return prompt + " " + section
}

// Stats reports aggregate lexicon state
type Stats struct {
	TotalTranscripts int      `json:"total_transcripts"`
	UniqueHotwords   int      `json:"unique_hotwords"`
	TopHotwords      []string `json:"top_hotwords"`
}

// GetStats returns a snapshot of the lexicon's aggregate state
func (l *Lexicon) GetStats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		TotalTranscripts: l.data.Stats.TotalTranscripts,
		UniqueHotwords:   len(l.data.Hotwords),
		TopHotwords:      l.topHotwordsLocked(10),
	}
}

// save writes the lexicon to disk. Persistence failures are logged, never
// surfaced: the lexicon is an enhancement, not a dependency.
func (l *Lexicon) save() {
	raw, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to encode lexicon")
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("Failed to create lexicon directory")
		return
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("Failed to write lexicon")
	}
}

// findCandidates extracts hotword candidates from one transcript
func findCandidates(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{reCapitalized, reAcronym, reMixed, reCJKLatin} {
		for _, m := range re.FindAllString(text, -1) {
			seen[m] = struct{}{}
		}
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	return words
}
