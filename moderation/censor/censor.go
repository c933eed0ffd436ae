package censor

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"unicode"

	"github.com/harborchat/harbor/moderation/keyword"
)

// Placeholder is the glyph substituted for every redacted character after
// the first. U+2217 is a symbol, so the strip pass of a second censoring run
// lifts it straight back out and already-censored text never re-matches.
const Placeholder = '∗'

// PatternSource yields the current full set of blacklist patterns. Satisfied
// by the persistence store.
type PatternSource interface {
	ListBlacklistPatterns(ctx context.Context) ([]string, error)
}

// Filter owns the process-wide compiled matcher. The matcher is an immutable
// snapshot behind an atomic pointer: Reload compiles off the hot path and
// swaps the pointer, so in-flight censoring passes never see a half-built
// pattern and a failed compile leaves the previous matcher untouched.
type Filter struct {
	logger  *slog.Logger
	source  PatternSource
	matcher atomic.Pointer[keyword.Matcher]
}

func NewFilter(logger *slog.Logger, source PatternSource) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Filter{logger: logger, source: source}
	f.matcher.Store(keyword.NewEmptyMatcher())
	return f
}

// Matcher returns the current compiled matcher snapshot.
func (f *Filter) Matcher() *keyword.Matcher {
	return f.matcher.Load()
}

// Reload reads the full blacklist from the store, compiles a fresh matcher,
// and installs it atomically. On validation or compile failure the previous
// matcher stays installed and the error is returned to the caller.
func (f *Filter) Reload(ctx context.Context) error {
	patterns, err := f.source.ListBlacklistPatterns(ctx)
	if err != nil {
		matcherReloadCount.WithLabelValues("error").Inc()
		return err
	}
	m, err := keyword.Compile(patterns)
	if err != nil {
		matcherReloadCount.WithLabelValues("error").Inc()
		return err
	}
	f.matcher.Store(m)
	matcherReloadCount.WithLabelValues("ok").Inc()
	f.logger.Info("blacklist matcher reloaded", "entries", len(patterns), "empty", m.Empty())
	return nil
}

// Censor rewrites text using the current matcher. The boolean is false when
// nothing needed censoring (callers treat that as "leave the message alone").
func (f *Filter) Censor(text string) (string, bool) {
	return Rewrite(f.logger, f.Matcher(), text)
}

// Rewrite runs the three censoring passes over text with the given matcher:
// protect-and-strip, match-and-redact, reinsert. Returns the rewritten text
// and true, or ("", false) when no redaction happened.
func Rewrite(logger *slog.Logger, m *keyword.Matcher, text string) (string, bool) {
	if m == nil || m.Empty() || text == "" {
		return "", false
	}

	stripped, runs := protectAndStrip(text)
	if len(stripped) == 0 {
		return "", false
	}

	matches, err := m.FindSpans(string(stripped))
	if err != nil {
		logger.Error("blacklist matcher failed", "err", err)
		return "", false
	}
	if len(matches) == 0 {
		return "", false
	}

	redacted := make([]rune, len(stripped))
	copy(redacted, stripped)
	for _, span := range matches {
		s, e := span[0], span[1]
		pullBackAdjacentRuns(stripped, runs, s, e)
		for i := s + 1; i < e; i++ {
			redacted[i] = Placeholder
		}
	}

	rewriteCount.Inc()
	return reinsert(redacted, runs), true
}

// pullBackAdjacentRuns handles the repeated-letter dodge ("slooo our" style):
// when the match span abuts a run of its own first or last letter, the
// nearest still-pending protected run sitting inside that repeated-letter
// span is pulled out of its original slot and spliced against the matched
// word instead, so restoring whitespace cannot resurrect an unredacted
// fragment. Each match adjusts offsets as one batch; nothing is mutated
// mid-scan.
func pullBackAdjacentRuns(stripped []rune, runs []*protectedRun, s, e int) {
	first := unicode.ToLower(stripped[s])
	last := unicode.ToLower(stripped[e-1])

	j := s
	for j > 0 && unicode.ToLower(stripped[j-1]) == first {
		j--
	}
	k := e
	for k < len(stripped) && unicode.ToLower(stripped[k]) == last {
		k++
	}

	if j < s {
		// nearest pending run inside the leading repeat span becomes a prefix
		var best *protectedRun
		for _, r := range runs {
			if !r.splitter {
				continue
			}
			if r.lookupOffset > j && r.lookupOffset <= s {
				if best == nil || r.lookupOffset > best.lookupOffset {
					best = r
				}
			}
		}
		if best != nil {
			best.lookupOffset = j
		}
	}
	if k > e {
		// nearest pending run inside the trailing repeat span becomes a suffix
		var best *protectedRun
		for _, r := range runs {
			if !r.splitter {
				continue
			}
			if r.lookupOffset >= e && r.lookupOffset < k {
				if best == nil || r.lookupOffset < best.lookupOffset {
					best = r
				}
			}
		}
		if best != nil {
			best.lookupOffset = k
		}
	}
}

// reinsert walks the protected runs in adjusted order and splices them back
// into the redacted text. A splitter run whose slot now sits immediately in
// front of a placeholder glyph is dropped, keeping redacted fragments
// visually contiguous.
func reinsert(redacted []rune, runs []*protectedRun) string {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].lookupOffset < runs[j].lookupOffset
	})

	out := make([]rune, 0, len(redacted)+len(runs)*2)
	ri := 0
	for pos := 0; pos <= len(redacted); pos++ {
		for ri < len(runs) && runs[ri].lookupOffset == pos {
			r := runs[ri]
			ri++
			if r.splitter && pos < len(redacted) && redacted[pos] == Placeholder {
				continue
			}
			out = append(out, []rune(r.text)...)
		}
		if pos < len(redacted) {
			out = append(out, redacted[pos])
		}
	}
	return string(out)
}
