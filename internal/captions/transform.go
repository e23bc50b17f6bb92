package captions

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/denysyudin/captionize/pkg/log"
)

// ReplaceRule substitutes a word's display text when its find value
// matches. Rules are applied in listed order.
type ReplaceRule struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

var upper = cases.Upper(language.Und)

// Transform produces the final display text for one word.
//
// Matching policy: a rule matches when its find value occurs as a
// case-insensitive whole word inside the current text; on match the entire
// display text is replaced with the rule's replacement (word-level
// censoring, not substring splicing). The all-caps fold runs after all
// substitutions. Empty input always yields empty output.
func Transform(text string, rules []ReplaceRule, allCaps bool) string {
	if text == "" {
		return ""
	}

	for _, rule := range rules {
		if rule.Find == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(rule.Find) + `\b`)
		if err != nil {
			log.Warn("Skipping unusable replace rule %q: %v", rule.Find, err)
			continue
		}
		if re.MatchString(text) {
			text = rule.Replace
		}
	}

	if allCaps {
		text = upper.String(text)
	}
	return text
}
