// Package normalize canonicalizes the free-text labels (player names,
// leagues, seasons) that differ between the transfer and performance
// sources, so joins can rely on exact equality everywhere except names.
package normalize

import (
	"regexp"
	"strings"
)

// Diacritics seen in top-five-league player names. Folding is done with an
// explicit table rather than a unicode decomposition pass so the two data
// sources cannot disagree on edge cases.
var diacriticReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "õ", "o", "ô", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ñ", "n", "ç", "c", "ć", "c", "č", "c",
	"ş", "s", "š", "s", "ž", "z", "đ", "d",
	"ø", "o", "å", "a", "æ", "ae",
)

var (
	honorificSuffixRegex = regexp.MustCompile(`\s+(jr|sr|ii|iii|iv)\.?$`)
	whitespaceRunRegex   = regexp.MustCompile(`\s+`)
)

// Name canonicalizes a raw player name for cross-source comparison:
// lowercase, trimmed, whitespace runs collapsed, diacritics folded to base
// Latin letters, honorific suffixes stripped. An empty or missing name
// yields "". Name is idempotent.
func Name(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return ""
	}

	name = diacriticReplacer.Replace(name)
	// Suffixes stack ("Smith Jr. II"); strip until the name stops changing.
	for {
		stripped := honorificSuffixRegex.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = stripped
	}
	name = whitespaceRunRegex.ReplaceAllString(name, " ")

	return strings.TrimSpace(name)
}
