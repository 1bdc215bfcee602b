package tts

import (
	"regexp"
	"strings"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Порядок важен: блоки кода убираются раньше инлайн-кода, картинки раньше ссылок.
var cleanRules = []rule{
	{regexp.MustCompile("```[\\s\\S]*?```"), ""},
	{regexp.MustCompile("```"), ""},
	{regexp.MustCompile("`([^`\\n]+)`"), "$1"},
	{regexp.MustCompile(`!\[.*?\]\(.*?\)`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`https?://\S+`), ""},
	{regexp.MustCompile(`<[^>]+>`), ""},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.*?)__`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`_(.*?)_`), "$1"},
	{regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`), ""},
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},
	{regexp.MustCompile(`(?m)^\s*\d+\.\s+`), ""},
	{regexp.MustCompile(`(?m)^\s*#.*$`), ""},
	{regexp.MustCompile(`\n{2,}`), "\n\n"},
}

// CleanForSpeech убирает из ответа модели markdown и HTML, чтобы синтезатор читал только прозу.
func CleanForSpeech(text string) string {
	for _, r := range cleanRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return strings.TrimSpace(text)
}
