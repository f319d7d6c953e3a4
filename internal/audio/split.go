// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into chunks of at most limit characters, cutting at
// sentence boundaries first and falling back to word boundaries for
// sentences that are themselves over the limit. A single word longer than
// the limit is cut mid-word. Limits are counted in runes to match the
// endpoint's character accounting. Implements: prd006-audio R2.2.
func SplitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, sentence := range splitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if n > limit {
			flush()
			chunks = append(chunks, splitWords(sentence, limit)...)
			continue
		}
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(sentence)
		curLen += n
	}
	flush()
	return chunks
}

// splitSentences cuts text after sentence-ending punctuation followed by
// whitespace, and at newlines. The cut points are all ASCII, so scanning
// bytes is safe for UTF-8 input.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		case '\n':
			if s := strings.TrimSpace(text[start:i]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// splitWords hard-splits an oversized sentence at word boundaries.
func splitWords(s string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	for _, word := range strings.Fields(s) {
		n := utf8.RuneCountInString(word)
		for n > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
				curLen = 0
			}
			runes := []rune(word)
			chunks = append(chunks, string(runes[:limit]))
			word = string(runes[limit:])
			n = len(runes) - limit
		}
		if n == 0 {
			continue
		}
		if curLen > 0 && curLen+1+n > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
