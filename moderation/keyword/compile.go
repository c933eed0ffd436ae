package keyword

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// EmptyPattern is the sentinel source installed when the blacklist has no
// entries. It technically matches the empty string, so callers must check
// Matcher.Empty() before running it; the censor treats an empty matcher as
// "no blacklist active".
const EmptyPattern = "(?:)"

// ValidationError reports a blacklist entry using a construct outside the
// accepted pattern subset. Surfaced to the moderator who submitted the entry.
type ValidationError struct {
	Pattern   string
	Construct string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid blacklist pattern %q: %s not allowed", e.Pattern, e.Construct)
}

// CompileError reports a failure compiling the combined matcher. The
// previously installed matcher stays in effect when this is returned.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling blacklist matcher: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Matcher is the compiled, case-insensitive combination of every blacklist
// entry, with each bare letter expanded to its confusable alternation.
// Immutable once built; swapped wholesale on blacklist changes.
type Matcher struct {
	re     *regexp2.Regexp
	source string
	empty  bool
}

// NewEmptyMatcher returns the sentinel matcher used when no blacklist
// entries exist.
func NewEmptyMatcher() *Matcher {
	return &Matcher{
		re:     regexp2.MustCompile(EmptyPattern, regexp2.IgnoreCase),
		source: EmptyPattern,
		empty:  true,
	}
}

// Empty reports whether this is the no-blacklist sentinel. Callers must not
// run the sentinel against text (it matches the empty string).
func (m *Matcher) Empty() bool { return m.empty }

// Source returns the combined pattern source, mostly for logging.
func (m *Matcher) Source() string { return m.source }

// FindSpans returns the (start, end) rune offsets of every non-overlapping
// match in text, left to right. Returns nil for the empty sentinel.
func (m *Matcher) FindSpans(text string) ([][2]int, error) {
	if m.empty {
		return nil, nil
	}
	var spans [][2]int
	match, err := m.re.FindStringMatch(text)
	for match != nil && err == nil {
		if match.Length > 0 {
			spans = append(spans, [2]int{match.Index, match.Index + match.Length})
		}
		match, err = m.re.FindNextMatch(match)
	}
	if err != nil {
		return nil, err
	}
	return spans, nil
}

// Compile validates and expands every blacklist entry and combines them into
// a single matcher. An empty entry set yields the empty sentinel. On any
// error the caller should keep using its previous matcher.
//
// Uses regexp2 rather than the standard library engine because the accepted
// pattern subset includes lookaround.
func Compile(patterns []string) (*Matcher, error) {
	if len(patterns) == 0 {
		return NewEmptyMatcher(), nil
	}
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		exp, err := ExpandPattern(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "(?:"+exp+")")
	}
	source := strings.Join(parts, "|")
	re, err := regexp2.Compile(source, regexp2.IgnoreCase)
	if err != nil {
		return nil, &CompileError{Source: source, Err: err}
	}
	return &Matcher{re: re, source: source}, nil
}

// ExpandPattern validates one blacklist entry against the accepted subset and
// rewrites it with confusable expansion: bare letters become non-capturing
// alternations of their variants, and letters (and ranges) inside character
// classes are widened with the variant code points, duplicates collapsed.
func ExpandPattern(pattern string) (string, error) {
	if err := ValidatePattern(pattern); err != nil {
		return "", err
	}
	var out strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\\':
			out.WriteRune(c)
			if i+1 < len(runes) {
				i++
				out.WriteRune(runes[i])
			}
		case c == '[':
			j, class := expandClass(runes, i)
			out.WriteString(class)
			i = j
		case IsLatinLetter(c):
			out.WriteString(letterAlternation(c))
		default:
			out.WriteRune(c)
		}
	}
	return out.String(), nil
}

// letterAlternation builds the (?:a|а|...) group for a bare letter.
func letterAlternation(c rune) string {
	variants := Confusables(c)
	parts := make([]string, 0, len(variants))
	seen := make(map[rune]bool, len(variants))
	for _, v := range variants {
		if seen[v] {
			continue
		}
		seen[v] = true
		parts = append(parts, escapeRune(v))
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}

// expandClass consumes a [...] class starting at runes[start] (the opening
// bracket) and returns the index of the closing bracket plus the rewritten
// class. Ranges over letters are flattened first, then every letter is
// widened with its confusable variants; set semantics collapse duplicates.
func expandClass(runes []rune, start int) (int, string) {
	var members []rune
	seen := make(map[rune]bool)
	add := func(c rune) {
		if !seen[c] {
			seen[c] = true
			members = append(members, c)
		}
	}
	addLetter := func(c rune) {
		for _, v := range Confusables(c) {
			add(v)
		}
	}

	var out strings.Builder
	out.WriteByte('[')
	i := start + 1
	if i < len(runes) && runes[i] == '^' {
		out.WriteByte('^')
		i++
	}
	for ; i < len(runes) && runes[i] != ']'; i++ {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) {
			// escapes inside classes pass through untouched
			flushMembers(&out, members)
			members = members[:0]
			out.WriteRune('\\')
			i++
			out.WriteRune(runes[i])
			continue
		}
		// range like a-d: flatten, then widen each letter
		if i+2 < len(runes) && runes[i+1] == '-' && runes[i+2] != ']' {
			lo, hi := c, runes[i+2]
			if IsLatinLetter(lo) && IsLatinLetter(hi) && lo <= hi {
				for r := lo; r <= hi; r++ {
					addLetter(r)
				}
				i += 2
				continue
			}
			// non-letter range passes through as written
			flushMembers(&out, members)
			members = members[:0]
			out.WriteRune(lo)
			out.WriteByte('-')
			out.WriteRune(hi)
			i += 2
			continue
		}
		if IsLatinLetter(c) {
			addLetter(c)
		} else {
			add(c)
		}
	}
	flushMembers(&out, members)
	out.WriteByte(']')
	return i, out.String()
}

func flushMembers(out *strings.Builder, members []rune) {
	for _, m := range members {
		if classMetaRune(m) {
			out.WriteByte('\\')
		}
		out.WriteRune(m)
	}
}

func classMetaRune(c rune) bool {
	return c == '\\' || c == ']' || c == '^' || c == '-' || c == '['
}

// escapeRune backslash-escapes regex metacharacters among confusable
// variants (eg '$', '+', '|') so they stay literal inside alternations.
func escapeRune(c rune) string {
	if strings.ContainsRune(`\.+*?()|[]{}^$!`, c) {
		return `\` + string(c)
	}
	return string(c)
}

// ValidatePattern rejects constructs outside the accepted subset: capturing
// groups, named groups, inline flags, backreferences, and unbounded repeat
// syntax errors. Allowed: literals, escapes, character classes, alternation,
// quantifiers (including bounded {m,n}), anchors, non-capturing groups, and
// lookaround.
func ValidatePattern(pattern string) error {
	runes := []rune(pattern)
	depth := 0
	inClass := false
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' {
			if i+1 >= len(runes) {
				return &ValidationError{Pattern: pattern, Construct: "trailing backslash"}
			}
			i++
			e := runes[i]
			if e >= '1' && e <= '9' {
				return &ValidationError{Pattern: pattern, Construct: "backreference"}
			}
			continue
		}
		if inClass {
			if c == ']' {
				inClass = false
			}
			continue
		}
		switch c {
		case '[':
			inClass = true
		case ']':
			return &ValidationError{Pattern: pattern, Construct: "unmatched ]"}
		case '(':
			if i+1 >= len(runes) || runes[i+1] != '?' {
				return &ValidationError{Pattern: pattern, Construct: "capturing group"}
			}
			if i+2 >= len(runes) {
				return &ValidationError{Pattern: pattern, Construct: "unterminated group"}
			}
			switch runes[i+2] {
			case ':', '=', '!':
				i += 2
			case '<':
				if i+3 >= len(runes) || (runes[i+3] != '=' && runes[i+3] != '!') {
					return &ValidationError{Pattern: pattern, Construct: "named group"}
				}
				i += 3
			default:
				return &ValidationError{Pattern: pattern, Construct: "inline group modifier"}
			}
			depth++
		case ')':
			depth--
			if depth < 0 {
				return &ValidationError{Pattern: pattern, Construct: "unmatched )"}
			}
		case '{':
			j, ok := scanBoundedQuantifier(runes, i)
			if !ok {
				return &ValidationError{Pattern: pattern, Construct: "malformed {m,n} quantifier"}
			}
			i = j
		}
	}
	if depth != 0 {
		return &ValidationError{Pattern: pattern, Construct: "unmatched ("}
	}
	if inClass {
		return &ValidationError{Pattern: pattern, Construct: "unterminated character class"}
	}
	return nil
}

// scanBoundedQuantifier checks {m}, {m,} or {m,n} starting at the opening
// brace and returns the index of the closing brace.
func scanBoundedQuantifier(runes []rune, start int) (int, bool) {
	i := start + 1
	digits := 0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		digits++
		i++
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(runes) && runes[i] == ',' {
		i++
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			i++
		}
	}
	if i >= len(runes) || runes[i] != '}' {
		return 0, false
	}
	return i, true
}
