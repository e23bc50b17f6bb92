package captions

import "strings"

// WrapWords splits text into lines of at most maxWordsPerLine words,
// joined with newlines. Non-positive limits leave the text on one line.
func WrapWords(text string, maxWordsPerLine int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if maxWordsPerLine <= 0 {
		return strings.Join(words, " ")
	}

	lines := make([]string, 0, (len(words)+maxWordsPerLine-1)/maxWordsPerLine)
	for i := 0; i < len(words); i += maxWordsPerLine {
		end := i + maxWordsPerLine
		if end > len(words) {
			end = len(words)
		}
		lines = append(lines, strings.Join(words[i:end], " "))
	}
	return strings.Join(lines, "\n")
}
