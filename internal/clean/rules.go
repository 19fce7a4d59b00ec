package clean

import (
	"regexp"
	"strings"

	"github.com/julianknutsen/cuneiset/internal/oracc"
)

const missing = oracc.TokenMissing

// Final forms of the special tokens.
const (
	Missing    = "..."
	Surface    = "<SURFACE>"
	Column     = "<COLUMN>"
	BlankSpace = "<BLANK_SPACE>"
	Ruling     = "<RULING>"
)

// rule is one ordered rewrite of a transliteration.
type rule struct {
	name  string
	apply func(c *cleaner, s string) string
}

var rules = []rule{
	// easy wins
	{"double-angle-brackets", doubleAngleBrackets},
	{"upper-brackets", upperBrackets},
	{"double-curly-braces", doubleCurlyBraces},
	{"collapse", collapse},
	{"sanity-1", sanity(disallowed1)},

	// enclosures out of order
	{"unmatched-brackets", unmatchedBrackets},
	{"enclosure-order", enclosureOrder},

	// other elements
	{"single-angle-brackets", singleAngleBrackets},
	{"semicolons", semicolons},
	{"single-curly-braces", singleCurlyBraces},
	{"vertical-bars", verticalBars},
	{"parentheses", parentheses},
	{"collapse", collapse},
	{"sanity-2", sanity(disallowed2)},

	// missing text
	{"square-brackets", squareBrackets},
	{"x-o-n", xon},
	{"x-o-n", xon},
	{"x-o-n", xon},
	{"dollar-signs", dollarSigns},
	{"ellipses", ellipses},
	{"standalone-parens", standaloneParens},
	{"collapse", collapse},
	{"sanity-3", sanity(disallowed3)},

	// enclosures
	{"missing-in-enclosure", missingInEnclosure},
	{"empty-enclosures", emptyEnclosures},
	{"collapse", collapse},

	// final
	{"sanity-final", sanity(disallowedFinal)},
	{"special-tokens", convertSpecialTokens},
}

var (
	disallowed1     = []string{"<<", ">>", "⸢", "⸣", "{{", "}}"}
	disallowed2     = []string{"<", ">", "(-", "-)", "{-", "-}"}
	disallowed3     = []string{"[", "]", "$", "..."}
	disallowedFinal = concat(disallowed1, disallowed2, disallowed3,
		[]string{" " + missing, missing + " ", "\n ", " \n", "  "})
)

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// sanity reports, without changing the text, any disallowed substring.
func sanity(disallowed []string) func(*cleaner, string) string {
	return func(c *cleaner, s string) string {
		for _, d := range disallowed {
			if n := strings.Count(s, d); n > 0 {
				c.issue("disallowed %q x%d", d, n)
			}
		}
		return s
	}
}

var angleStripper = strings.NewReplacer("<<", "", ">>", "")

func doubleAngleBrackets(_ *cleaner, s string) string { return angleStripper.Replace(s) }

var upperStripper = strings.NewReplacer("⸢", "", "⸣", "")

func upperBrackets(_ *cleaner, s string) string { return upperStripper.Replace(s) }

var (
	glossRe     = regexp.MustCompile(`\{\{[^\n]*?\}\}`)
	glossTailRe = regexp.MustCompile(`\n[^\n]*?\}\}`)
)

func doubleCurlyBraces(c *cleaner, s string) string {
	s = glossRe.ReplaceAllStringFunc(s, func(m string) string {
		c.fix("removed gloss %s", m)
		return ""
	})
	s = glossTailRe.ReplaceAllStringFunc(s, func(m string) string {
		c.fix("removed gloss tail %s", strings.TrimPrefix(m, "\n"))
		return "\n"
	})
	if strings.Contains(s, "{{") || strings.Contains(s, "}}") {
		c.issue("uncaught gloss")
	}
	return s
}

var (
	newlineRunRe = regexp.MustCompile(`([ \-]*\n[ \-]*)+`)
	spaceRunRe   = regexp.MustCompile(`(-* -*)+`)
	hyphenRunRe  = regexp.MustCompile(`-+`)
	missingRunRe = regexp.MustCompile(`([ \-]*#MISSING#[ \-]*)+`)
)

// collapse normalises whitespace, hyphens and runs of missing markers.
func collapse(_ *cleaner, s string) string {
	s = newlineRunRe.ReplaceAllString(s, "\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	s = missingRunRe.ReplaceAllString(s, missing)
	return collapseMissingLines(s)
}

// collapseMissingLines folds consecutive "\n#MISSING#" units into one,
// counting only units that are followed by a newline.
func collapseMissingLines(s string) string {
	const unit = "\n" + missing
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		j := i
		for strings.HasPrefix(s[j:], unit) && j+len(unit) < len(s) && s[j+len(unit)] == '\n' {
			j += len(unit)
		}
		if j > i {
			b.WriteString(unit)
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// unmatchedBrackets reports lines whose square brackets do not pair up.
func unmatchedBrackets(c *cleaner, s string) string {
	if c.id == "P343022" {
		s = strings.ReplaceAll(s, " [x x x\n", missing+"\n")
	}
	for _, line := range strings.Split(s, "\n") {
		depth, unmatched := 0, false
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '[':
				depth++
			case ']':
				if depth == 0 {
					unmatched = true
				} else {
					depth--
				}
			}
		}
		if unmatched || depth > 0 {
			c.issue("unmatched brackets in %q", line)
		}
	}
	return s
}

type reorder struct {
	re       *regexp.Regexp
	from, to string
}

var reorders = []reorder{
	// ([...)...] -> [(...)...]; only x, space and hyphen are allowed inside
	{regexp.MustCompile(`\(\[[\- x]*?\)[\- x]*?\]`), "([", "[("},
	// [...(...]) -> [...(...)]
	{regexp.MustCompile(`\[[^\n(\]]*?\([^\n)\]]*?\]\)`), "])", ")]"},
	// {[...}...] -> [{...}...]
	{regexp.MustCompile(`\{\[[^\n}\]]*?\}[^\n\]]*?\]`), "{[", "[{"},
	// [...{...]} -> [...{...}]
	{regexp.MustCompile(`\[[^\n{\]]*?\{[^\n\]]*?\]\}`), "]}", "}]"},
	// <...{...>} -> <...{...}>
	{regexp.MustCompile(`<[^\n{>]*?\{[^\n}>]*?>\}`), ">}", "}>"},
	// {<...}...> -> <{...}...>
	{regexp.MustCompile(`\{<[^\n}>]*?\}`), "{<", "<{"},
}

func enclosureOrder(c *cleaner, s string) string {
	for _, r := range reorders {
		s = r.re.ReplaceAllStringFunc(s, func(m string) string {
			after := strings.ReplaceAll(m, r.from, r.to)
			c.fix("reordered %s -> %s", m, after)
			return after
		})
	}
	if c.id == "P324221" {
		s = strings.ReplaceAll(s, "[ma-da za-ab-ša-li{<ki]>}", "[ma-da za-ab-ša-li<{ki}>]")
	}
	return s
}

var (
	angleRe      = regexp.MustCompile(`<[^\n]*?>`)
	angleOpenRe  = regexp.MustCompile(`<[^\n>]*?(\n|$)`)
	angleCloseRe = regexp.MustCompile(`(\n|^)[^\n<]*?>`)
)

// singleAngleBrackets drops supplied-but-absent graphemes. An unmatched
// opening bracket loses the rest of its line, an unmatched closing one the
// start of its line.
func singleAngleBrackets(_ *cleaner, s string) string {
	s = angleRe.ReplaceAllString(s, "")
	s = angleOpenRe.ReplaceAllString(s, missing+"\n")
	return angleCloseRe.ReplaceAllString(s, "\n"+missing)
}

func semicolons(_ *cleaner, s string) string { return strings.ReplaceAll(s, ";", "\n") }

var braceHyphens = strings.NewReplacer("{-", "{", "-}", "}")

func singleCurlyBraces(_ *cleaner, s string) string { return braceHyphens.Replace(s) }

var compoundRe = regexp.MustCompile(`\|[^|a-z]*?\|`)

// verticalBars separates |...| compounds from what follows with a hyphen.
func verticalBars(c *cleaner, s string) string {
	return compoundRe.ReplaceAllStringFunc(s, func(m string) string {
		if strings.Contains(m, "-") {
			c.issue("hyphen inside compound %s", m)
			m = strings.ReplaceAll(m, "-", "")
		}
		return m + "-"
	})
}

var (
	hyphenCloseRe = regexp.MustCompile(`-+\)`)
	closeLetterRe = regexp.MustCompile(`\)([a-zA-Z])`)
)

func parentheses(_ *cleaner, s string) string {
	s = hyphenCloseRe.ReplaceAllString(s, ")-")
	s = closeLetterRe.ReplaceAllString(s, ")-$1")
	return strings.ReplaceAll(s, "(-", "(")
}

var (
	bracketedRe   = regexp.MustCompile(`\[[^\[\]\n]*?\]`)
	openBracketRe = regexp.MustCompile(`\[[^\[\]\n]*?\n`)
	closeBracket  = regexp.MustCompile(`\n[^\[\]\n]*?\]`)
)

// squareBrackets turns restored text into a missing marker.
func squareBrackets(_ *cleaner, s string) string {
	// twice, for one level of nesting
	s = bracketedRe.ReplaceAllString(s, missing)
	s = bracketedRe.ReplaceAllString(s, missing)
	s = openBracketRe.ReplaceAllString(s, missing+"\n")
	return closeBracket.ReplaceAllString(s, "\n"+missing)
}

func isSep(b byte) bool { return b == ' ' || b == '-' || b == '\n' }

// markUnknownSigns replaces a lone x, X, n, N or o between separators with
// the missing marker, keeping the leading separator.
func markUnknownSigns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b.WriteByte(s[i])
		if !isSep(s[i]) || i+1 >= len(s) || !strings.ContainsRune("xXnNo", rune(s[i+1])) {
			continue
		}
		if i+2 == len(s) || isSep(s[i+2]) {
			b.WriteString(missing)
			i++
		}
	}
	return b.String()
}

var unknownSignReplacers = func() map[string]*strings.Replacer {
	m := make(map[string]*strings.Replacer)
	for _, ch := range []string{"x", "o", "n", "X", "O", "N"} {
		m[ch] = strings.NewReplacer(
			"("+ch+")", missing,
			"["+ch+"]", missing,
		)
	}
	return m
}()

func xon(c *cleaner, s string) string {
	s = markUnknownSigns(s)
	for _, ch := range []string{"x", "o", "n", "X", "O", "N"} {
		s = unknownSignReplacers[ch].Replace(s)
		for _, p := range [][2]string{
			{"-" + ch + "-", " " + missing + " "},
			{" " + ch + "-", " " + missing + " "},
			{"-" + ch + " ", " " + missing + " "},
			{" " + ch + " ", " " + missing + " "},
			{"\n" + ch + " ", "\n" + missing + " "},
			{" " + ch + "\n", " " + missing + "\n"},
		} {
			s = strings.ReplaceAll(s, p[0], p[1])
		}
		for _, p := range []string{
			missing + ch + " ",
			missing + ch + "-",
			" " + ch + missing,
			"-" + ch + missing,
		} {
			s = strings.ReplaceAll(s, p, missing)
		}
	}

	switch c.id {
	case "P010855":
		s = strings.ReplaceAll(s, "x:ur", "ur"+missing)
	case "P278368":
		s = strings.ReplaceAll(s, "-x/EREN", missing)
	case "P323466":
		s = strings.ReplaceAll(s, "|3xAN|", "|AN.AN.AN|")
	case "P467714":
		s = strings.ReplaceAll(s, "x)", missing+")")
	}
	return s
}

var dollarMarkers = strings.NewReplacer(
	"$ traces $", missing,
	"($erasure$)", missing,
	"$erasure$", missing,
	"$AN", missing,
	"$MU", missing,
	"$UŠ", missing,
	"$KID", missing,
	"$DI", missing,
	"$GA₂", missing,
	"$HAR", missing,
)

func dollarSigns(c *cleaner, s string) string {
	s = dollarMarkers.Replace(s)
	if strings.Contains(s, "$") {
		c.issue("uncaught $")
	}
	return s
}

func ellipses(_ *cleaner, s string) string { return strings.ReplaceAll(s, "...", missing) }

var standaloneParenRe = regexp.MustCompile(`(?:^|[\n \-])(\([^\n)]+\))(?:$|[\n \-])`)

// standaloneParens drops parenthesised groups that stand alone as a word;
// they mark graphemes that may be present but are uncertain.
func standaloneParens(c *cleaner, s string) string {
	for _, m := range standaloneParenRe.FindAllStringSubmatch(s, -1) {
		c.fix("removed %s", m[1])
		s = strings.ReplaceAll(s, m[1], "")
	}
	return s
}

var (
	missingInParensRe = regexp.MustCompile(`\([ \-]*#MISSING#[ \-]*\)`)
	missingInBracesRe = regexp.MustCompile(`\{[ \-]*#MISSING#[ \-]*\}`)
)

func missingInEnclosure(_ *cleaner, s string) string {
	s = missingInParensRe.ReplaceAllString(s, missing)
	return missingInBracesRe.ReplaceAllString(s, missing)
}

var emptyEnclosureStripper = strings.NewReplacer("{}", "", "()", "")

func emptyEnclosures(_ *cleaner, s string) string { return emptyEnclosureStripper.Replace(s) }

var specialTokens = strings.NewReplacer(
	oracc.TokenMissing, Missing,
	oracc.TokenSurface, Surface,
	oracc.TokenColumn, Column,
	oracc.TokenBlankSpace, BlankSpace,
	oracc.TokenRuling, Ruling,
)

func convertSpecialTokens(_ *cleaner, s string) string { return specialTokens.Replace(s) }

var tokenStripper = strings.NewReplacer(
	Missing, "", Surface, "", Column, "", BlankSpace, "", Ruling, "", "\n", "",
)

// HasText reports whether a cleaned transliteration has anything besides
// special tokens and newlines.
func HasText(s string) bool { return tokenStripper.Replace(s) != "" }
