package censor

import (
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"
)

// A protected run lifted out of the text before matching. Offsets are rune
// offsets: origOffset into the original text, lookupOffset into the stripped
// text (ie, the number of kept runes preceding the run). Runs are reinserted
// in original order after redaction; splitter runs (whitespace, punctuation)
// may be dropped or spliced around a redacted word instead.
type protectedRun struct {
	origOffset   int
	lookupOffset int
	text         string
	splitter     bool
}

var (
	customEmojiRegex = regexp.MustCompile(`<a?:\w+:\d+>`)
	urlRegex         = regexp.MustCompile(`https?://[^\s<>]+`)
)

// markdown emphasis and spoiler markers
func isMarkdownMarker(c rune) bool {
	switch c {
	case '*', '_', '~', '`', '|':
		return true
	}
	return false
}

// Invisible characters are matched by the strip pass but never queued for
// reinsertion: dropping them permanently closes the evasion trick of lacing
// a banned word with zero-width joiners.
func isInvisible(c rune) bool {
	switch c {
	case '­', '͏', 'ㅤ', 'ﾠ':
		return true
	}
	return unicode.Is(unicode.Cf, c)
}

func isSplitterRune(c rune) bool {
	return unicode.IsSpace(c) || isMarkdownMarker(c) || unicode.IsPunct(c) || unicode.IsSymbol(c)
}

// protectAndStrip performs the first censoring pass: custom-emoji tokens,
// URLs, whitespace runs, markdown markers, and punctuation/symbol runs are
// extracted with their offsets; invisible characters are discarded outright.
// What remains (letters, digits, marks) is the text the matcher runs over.
func protectAndStrip(text string) ([]rune, []*protectedRun) {
	orig := []rune(text)
	intervals := protectedIntervals(text)

	var stripped []rune
	var runs []*protectedRun

	var pending []rune
	pendingStart := 0
	pendingSplitter := false
	flush := func() {
		if len(pending) == 0 {
			return
		}
		runs = append(runs, &protectedRun{
			origOffset:   pendingStart,
			lookupOffset: len(stripped),
			text:         string(pending),
			splitter:     pendingSplitter,
		})
		pending = nil
	}

	iv := 0
	for i := 0; i < len(orig); {
		if iv < len(intervals) && i == intervals[iv][0] {
			flush()
			end := intervals[iv][1]
			runs = append(runs, &protectedRun{
				origOffset:   i,
				lookupOffset: len(stripped),
				text:         string(orig[i:end]),
				splitter:     false,
			})
			i = end
			iv++
			continue
		}
		c := orig[i]
		switch {
		case isInvisible(c):
			// discarded permanently
		case isSplitterRune(c):
			if len(pending) == 0 {
				pendingStart = i
				pendingSplitter = true
			}
			pending = append(pending, c)
		default:
			flush()
			stripped = append(stripped, c)
		}
		i++
	}
	flush()
	return stripped, runs
}

// protectedIntervals returns merged, sorted [start, end) rune intervals for
// custom-emoji tokens and URLs in text.
func protectedIntervals(text string) [][2]int {
	var byteIvs [][]int
	byteIvs = append(byteIvs, customEmojiRegex.FindAllStringIndex(text, -1)...)
	byteIvs = append(byteIvs, urlRegex.FindAllStringIndex(text, -1)...)
	if len(byteIvs) == 0 {
		return nil
	}

	ivs := make([][2]int, 0, len(byteIvs))
	for _, iv := range byteIvs {
		ivs = append(ivs, [2]int{
			utf8.RuneCountInString(text[:iv[0]]),
			utf8.RuneCountInString(text[:iv[1]]),
		})
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i][0] < ivs[j][0] })

	merged := ivs[:1]
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if iv[0] < last[1] {
			if iv[1] > last[1] {
				last[1] = iv[1]
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
