package command

import (
	"context"
	"log/slog"
	"sort"
	"unicode"

	"github.com/voxcmd/voxcmd/internal/focus"
)

// boundaryPenalty is subtracted from a candidate's confidence for every
// word-boundary discrepancy: a trigger word aligning across two transcript
// words, or two trigger words collapsing into one. A single split scores
// 0.95 for a fully matched two-word trigger. Tunable.
const boundaryPenalty = 0.05

// candidate is one enabled trigger compiled for matching.
type candidate struct {
	phrase    string
	inject    string
	codes     []string
	threshold float64
}

// Snapshot is an immutable compiled configuration. Matching never mutates
// it, so a single instance may serve concurrent readers.
type Snapshot struct {
	Enabled          bool
	MatchFirstNWords int
	TerminalApps     []string
	candidates       []candidate
}

// Compile precomputes phonetic code sequences at load time and orders
// candidates longest-phrase-first so multi-word triggers win over their own
// prefixes.
func Compile(cfg Config) *Snapshot {
	snapshot := &Snapshot{
		Enabled:          cfg.Enabled,
		MatchFirstNWords: cfg.MatchFirstNWords,
		TerminalApps:     append([]string(nil), cfg.TerminalApps...),
	}
	if snapshot.MatchFirstNWords < 1 {
		snapshot.MatchFirstNWords = Default().MatchFirstNWords
	}

	for _, trigger := range cfg.Commands {
		if !trigger.IsEnabled() {
			continue
		}
		codes := phoneticCodes(trigger.Trigger)
		if len(codes) == 0 {
			continue
		}
		snapshot.candidates = append(snapshot.candidates, candidate{
			phrase:    trigger.Trigger,
			inject:    trigger.Inject,
			codes:     codes,
			threshold: trigger.EffectiveThreshold(cfg.DefaultThreshold),
		})
	}

	sort.SliceStable(snapshot.candidates, func(i, j int) bool {
		a, b := snapshot.candidates[i], snapshot.candidates[j]
		if len(a.codes) != len(b.codes) {
			return len(a.codes) > len(b.codes)
		}
		return len(a.phrase) > len(b.phrase)
	})

	return snapshot
}

// Triggers reports the compiled trigger phrases in matching order.
func (s *Snapshot) Triggers() []string {
	phrases := make([]string, 0, len(s.candidates))
	for _, c := range s.candidates {
		phrases = append(phrases, c.phrase)
	}
	return phrases
}

// Match attempts to rewrite the transcript's leading words. It returns the
// rewritten transcript and whether a trigger won. The remainder after the
// matched span is preserved byte-for-byte.
func (s *Snapshot) Match(transcript string) (string, bool) {
	words := splitWords(transcript)
	if len(words) == 0 || len(s.candidates) == 0 {
		return transcript, false
	}

	leading := words
	if len(leading) > s.MatchFirstNWords {
		leading = leading[:s.MatchFirstNWords]
	}
	codes := make([]string, len(leading))
	for i, w := range leading {
		codes[i] = phoneticCode(w.text)
	}

	for _, cand := range s.candidates {
		matched, discrepancies, consumed, ok := alignCodes(cand.codes, codes)
		if !ok || matched == 0 {
			continue
		}
		confidence := float64(matched)/float64(len(cand.codes)) - boundaryPenalty*float64(discrepancies)
		if confidence < 0 {
			confidence = 0
		}
		if confidence < cand.threshold {
			continue
		}
		remainder := transcript[leading[consumed-1].end:]
		return cand.inject + remainder, true
	}

	return transcript, false
}

// word is one whitespace-separated token with its byte offsets, so the
// unmatched remainder can be carried over verbatim.
type word struct {
	text  string
	start int
	end   int
}

// splitWords tokenizes on unicode whitespace, preserving byte offsets.
func splitWords(s string) []word {
	var words []word
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{text: s[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{text: s[start:], start: start, end: len(s)})
	}
	return words
}

// alignCodes aligns a trigger's phonetic codes against the leading transcript
// codes, anchored at the first word. A trigger code may consume one or two
// transcript codes (a word the transcriber split), two trigger codes may
// collapse onto one transcript code (words the transcriber merged), and an
// unrecognized trigger code consumes one word unmatched. It returns the best
// alignment by matched count, then fewest boundary discrepancies, then
// fewest words consumed.
func alignCodes(trigger []string, transcript []string) (matched int, discrepancies int, consumed int, ok bool) {
	type outcome struct {
		matched       int
		discrepancies int
		consumed      int
		valid         bool
	}

	better := func(a, b outcome) bool {
		if !b.valid {
			return true
		}
		if a.matched != b.matched {
			return a.matched > b.matched
		}
		if a.discrepancies != b.discrepancies {
			return a.discrepancies < b.discrepancies
		}
		return a.consumed < b.consumed
	}

	var walk func(ti, wi, matchedSoFar, discSoFar int) outcome
	walk = func(ti, wi, matchedSoFar, discSoFar int) outcome {
		if ti == len(trigger) {
			return outcome{matched: matchedSoFar, discrepancies: discSoFar, consumed: wi, valid: wi > 0}
		}
		if wi == len(transcript) {
			// Trigger words left over with no transcript to consume.
			return outcome{valid: false}
		}

		best := outcome{valid: false}

		// Exact one-to-one alignment.
		if codesEqual(trigger[ti], transcript[wi]) {
			if got := walk(ti+1, wi+1, matchedSoFar+1, discSoFar); got.valid && better(got, best) {
				best = got
			}
		}
		// One trigger word split across two transcript words.
		if wi+1 < len(transcript) && codesEqual(trigger[ti], transcript[wi]+transcript[wi+1]) {
			if got := walk(ti+1, wi+2, matchedSoFar+1, discSoFar+1); got.valid && better(got, best) {
				best = got
			}
		}
		// Two trigger words merged into one transcript word. The
		// concatenation is not a real coder output, so no truncation
		// tolerance: anything less than exact equality would let the first
		// trigger word's code alone claim both words.
		if ti+1 < len(trigger) && trigger[ti]+trigger[ti+1] == transcript[wi] {
			if got := walk(ti+2, wi+1, matchedSoFar+2, discSoFar+1); got.valid && better(got, best) {
				best = got
			}
		}
		// Unmatched trigger word consumes one transcript word.
		if got := walk(ti+1, wi+1, matchedSoFar, discSoFar); got.valid && better(got, best) {
			best = got
		}

		return best
	}

	result := walk(0, 0, 0, 0)
	if !result.valid {
		return 0, 0, 0, false
	}
	return result.matched, result.discrepancies, result.consumed, true
}

// Engine gates matching behind the enabled flag and terminal focus, then
// delegates to the current snapshot.
type Engine struct {
	store  *Store
	probe  focus.Probe
	logger *slog.Logger

	// OnMatch is invoked with the winning injection after each rewrite.
	OnMatch func()
}

// NewEngine wires the snapshot store and focus probe together.
func NewEngine(store *Store, probe focus.Probe, logger *slog.Logger) *Engine {
	return &Engine{store: store, probe: probe, logger: logger}
}

// Rewrite returns the transcript unchanged unless commands are enabled, a
// terminal holds focus, and a trigger clears its threshold.
func (e *Engine) Rewrite(ctx context.Context, transcript string) string {
	snapshot := e.store.Snapshot()
	if !snapshot.Enabled || e.probe == nil {
		return transcript
	}

	class, err := e.probe.ActiveAppClass(ctx)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("focus probe failed; skipping command match", "error", err.Error())
		}
		return transcript
	}
	if !focus.IsTerminal(class, snapshot.TerminalApps) {
		return transcript
	}

	rewritten, matchedTrigger := snapshot.Match(transcript)
	if !matchedTrigger {
		return transcript
	}
	if e.logger != nil {
		e.logger.Info("voice command rewrite", "app", class)
	}
	if e.OnMatch != nil {
		e.OnMatch()
	}
	return rewritten
}
