package oracc

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Structural markers written into raw transliterations. Later stages
// rewrite them into their final dataset form.
const (
	TokenMissing    = "#MISSING#"
	TokenBlankSpace = "#BLANK_SPACE#"
	TokenColumn     = "#COLUMN#"
	TokenRuling     = "#RULING#"
	TokenSurface    = "#SURFACE#"
)

var (
	specialTokenRe  = regexp.MustCompile(`#\S*?#`)
	spacedNewlineRe = regexp.MustCompile(` *\n *`)
	newlineRunRe    = regexp.MustCompile(`\n+`)
	spaceRunRe      = regexp.MustCompile(` +`)
)

// Transliterate renders a text's CDL as a transliteration and returns it
// together with the sorted, comma-joined languages of its lemmas.
func Transliterate(nodes []Node) (string, string) {
	langs := make(map[string]bool)
	tokens := crawl(nodes, nil, langs)

	var surfaces []string
	for _, s := range strings.Split(strings.Join(tokens, " "), TokenSurface) {
		s = strings.TrimSpace(s)
		if hasContent(s) {
			surfaces = append(surfaces, s)
		}
	}

	text := ""
	if len(surfaces) > 0 {
		text = TokenSurface + "\n" + strings.Join(surfaces, "\n"+TokenSurface+"\n")
	}
	text = spacedNewlineRe.ReplaceAllString(text, "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = norm.NFC.String(strings.TrimSpace(text))

	sorted := make([]string, 0, len(langs))
	for l := range langs {
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)
	return text, strings.Join(sorted, ", ")
}

func hasContent(s string) bool {
	s = specialTokenRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.ReplaceAll(s, " ", "") != ""
}

func crawl(nodes []Node, tokens []string, langs map[string]bool) []string {
	for _, n := range nodes {
		switch n.Kind {
		case KindChunk:
			tokens = crawl(n.Children, tokens, langs)
		case KindLemma:
			if n.Lang != "" {
				langs[n.Lang] = true
			}
			if t := lemmaText(n); t != "" {
				tokens = append(tokens, t)
			}
		case KindDiscontinuity:
			if t := discontinuityText(n); t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens
}

func discontinuityText(n Node) string {
	switch n.Type {
	case "object":
		return ""
	case "line-start":
		return "\n"
	case "column":
		return "\n" + TokenColumn + "\n"
	case "surface":
		return TokenSurface
	}
	switch n.State {
	case "missing":
		return "\n" + TokenMissing + "\n"
	case "blank":
		switch n.Scope {
		case "line":
			return "\n" + TokenMissing + "\n"
		case "space":
			return "\n" + TokenBlankSpace + "\n"
		}
	case "ruling":
		return "\n" + TokenRuling + "\n"
	}
	return ""
}

func lemmaText(n Node) string {
	text := n.Frag
	if text == "" {
		text = n.Form
	}
	return RepairBrackets(text, idealBrackets(n.GDL))
}

// idealBrackets lists the break brackets the grapheme data says a lemma
// should carry, in order.
func idealBrackets(gdl []GDLItem) string {
	var b strings.Builder
	mark := func(it GDLItem) {
		if it.BreakStart {
			b.WriteByte('[')
		}
		if it.BreakEnd {
			b.WriteByte(']')
		}
	}
	for _, item := range gdl {
		for _, sub := range item.Seq {
			mark(sub)
		}
		for _, sub := range item.Group {
			mark(sub)
		}
		mark(item)
	}
	return b.String()
}

func bracketsOf(text string) string {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '[' || text[i] == ']' {
			b.WriteByte(text[i])
		}
	}
	return b.String()
}

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// RepairBrackets makes the square brackets of a lemma form agree with the
// ideal bracket sequence derived from its grapheme data. Lemma forms often
// drop a bracket next to parentheses or an "n".
func RepairBrackets(text, ideal string) string {
	if ideal == "" {
		return text
	}
	actual := bracketsOf(text)
	if actual == ideal {
		return text
	}

	if strings.HasPrefix(ideal, "[") && strings.HasSuffix(ideal, "]") {
		if !strings.HasPrefix(actual, "[") {
			text = "[" + text
		}
		if !strings.HasSuffix(actual, "]") {
			text += "]"
		}
		if bracketsOf(text) == ideal {
			return text
		}
		return "[" + bracketStripper.Replace(text) + "]"
	}

	if strings.HasPrefix(ideal, "]") && !strings.HasPrefix(actual, "]") {
		if i := strings.IndexByte(text, '['); i == -1 {
			text += "]"
		} else {
			text = text[:i] + "]" + text[i:]
		}
	}
	if strings.HasSuffix(ideal, "[") && !strings.HasSuffix(actual, "[") {
		if i := strings.IndexByte(text, ']'); i == -1 {
			text = "[" + text
		} else {
			text = text[:i] + "[" + text[i:]
		}
	}
	if bracketsOf(text) == ideal {
		return text
	}

	text = bracketStripper.Replace(text)
	if strings.Contains(ideal, "[]") {
		text = "[" + text + "]"
	}
	if strings.HasPrefix(ideal, "[") {
		text = "[" + text
	}
	if strings.HasSuffix(ideal, "]") {
		text += "]"
	}
	return text
}
