package checkpoint

import "strings"

// Separator joins corpus entries on disk. An entry that contains it
// verbatim is split in two when the corpus is read back.
const Separator = "\n\n---\n\n"

// JoinCorpus renders entries as the corpus file content.
func JoinCorpus(entries []string) string {
	return strings.Join(entries, Separator)
}

// SplitCorpus parses corpus file content. Empty content yields no entries.
func SplitCorpus(content string) []string {
	if content == "" {
		return []string{}
	}
	return strings.Split(content, Separator)
}
