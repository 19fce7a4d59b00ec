package glyphs

import (
	"regexp"
	"strings"
)

type pair struct{ from, to string }

// Replacement tables, applied in order to the whole transliteration.
var (
	signListAliases = []pair{
		{"BAU377", "GIŠ"},
		{"KWU147", "LIL"},
		{"KWU354", "LUM"},
		{"KWU636", "KU₄"},
		{"KWU777", "ŠITA"},
		{"KWU844", "|E₂×AŠ@t|"},
		{"LAK060", "|UŠ×TAK₄|"},
		{"LAK085", "|SI×TAK₄|"},
		{"LAK173", "KAD₅"},
		{"LAK175", "SANGA₂"},
		{"LAK218", "|ZU&ZU.SAR|"},
		{"LAK449", "|NUNUZ.AB₂|"},
		{"LAK524", "|ZUM×TUG₂|"},
		{"LAK589", "GISAL"},
		{"LAK672a", "UŠX"},
		{"LAK672b", "MUNSUB"},
		{"LAK720", "|LAK648×(PAP.PAP.LU₃)|"},
		{"LAK769", "|LAGAB×AN|"},
		{"LAK777", "|DAG.KISIM₅×UŠ|"},
	}

	glyphNameNormalisations = []pair{
		{"(ŠE.1(AŠ))", "(ŠE.AŠ)"},
		{"(ŠE.2(AŠ))", "(ŠE.AŠ.AŠ)"},
		{"|E₂.BALAG|", "|KID.BALAG|"},
		{"|SAHAR.DU₆.TAK₄|", "IŠ LAGAR@g TAK₄"},
		{"|ŠE.ŠE|", "ŠE ŠE"},
		{"(EN.ZU-TI.LA.BI-DU₁₁.GA)", "|EN.ZU| TI LA BI KA GA"},
		{"|EN₂.E₂|", "|ŠU₂.AN| E₂"},
		{"|TAB.BA|", "TAB BA"},
		{"|GAR.UD|", "GAR UD"},
		{"|NE.DAG|", "NE DAG"},
		{"|ŠU₂.DUN₃@g@g@s|", "|ŠU₂.DUN₃|"},
		{"BAD₃", "|EZEN×BAD|"},
		{"BIL₂", "NE@s"},
		{"DU₈", "DUH"},
		{"ERIM", "ERIN₂"},
		{"GAG", "KAK"},
		{"GIN₂", "DUN₃@g"},
		{"GU₄", "GUD"},
		{"GUB", "DU"},
		{"ITI", "|UD×(U.U.U)|"},
		{"MUNUS", "SAL"},
		{"NIG₂", "GAR"},
		{"ŠAG₄", "ŠA₃"},
		{"ŠE₃", "EŠ₂"},
		{"SILA₄", "|GA₂×PA|"},
		{"SIG₇", "IGI@g"},
		{"TUR₃", "|NUN.LAGAR|"},
		{"UH₃", "KUŠU₂"},
		{"U₈", "|LAGAB×(GUD&GUD)|"},
	}

	// These see the text after the normalisations above.
	readingSignNameFixes = []pair{
		{"ad₆ ", "ad₆(|LU₂.LAGAB×U|) "},
		{"dabₓ(|LAGAB×(GUD&GUD)|)", "dibₓ(|LAGAB×(GUD&GUD)|)"},
		{"erinₓ(KWU896)", "erenₓ(KWU896)"},
		{"gurₓ(|ŠE.KIN|)še₃", "gurₓ(|ŠE.KIN|)-še₃"},
		{"gurumₓ(|IGI.ERIN₂|)", "gurum₂"},
		{"ilduₓ(NAGAR)", "nagar"},
		{"itiₓ(|UD@s×BAD|)", "iti₂(|UD@s×BAD|)"},
		{"itiₓ(|UD@s×TIL|)", "iti₂(|UD@s×BAD|)"},
		{"kuₓ(KU₄)", "ku₄"},
		{"lumₓ(LUM)", "lum"},
		{"mudₓ(|NUNUZ.AB₂|)", "mud₃(|NUNUZ.AB₂|)"},
		{"sangaₓ(|ŠID.GAR|)", "saŋŋaₓ(|ŠID.GAR|)"},
		{"šaganₓ(AMA)", "daŋal"},
		{"šitaₓ(ŠITA)", "šita"},
		{"tabₓ(MAN)", "tab₄"},
		{"umbinₓ(|UR₂×KID₂|)", "umbin(|UR₂×KID₂|)"},
		{"ušurₓ(|LAL₂×TUG₂|)", "ušurₓ(|LAL₂.TUG₂|)"},
		{"ugaₓ(NAGA)", "uga₃"},
		{"zeₓ(SIG₇)", "ziₓ(IGI@g)"},
		{"zeₓ(IGI@g)", "ziₓ(IGI@g)"},
	}

	readingNormalisations = []pair{
		{"babila", "babilim"},
		{"eri₁₃", "ere₁₃"},
		{"eriš₂", "ereš₂"},
		{"šu+nigin₂", "šuniŋin"},
		{"šu+nigin", "šuniŋin"},
		{"+...", "..."},
		{"...+", "..."},
		{"@c", ""},
		{"@t", ""},
		{"@v", ""},
		{"@90", ""},
	}

	fractionNormalisations = []pair{
		{"1/2(aš)", "1/2"},
		{"1/3(aš)", "1/3"},
		{"1/4(aš)", "1/4"},
		{"2/3(aš)", "2/3"},
		{"5/6(aš)", "5/6"},
	}

	compoundFixes = []pair{
		{"||LAGAB×(GUD&GUD)|+HUL₂|", "|LAGAB×(GUD&GUD)+HUL₂|"},
		{"||EZEN×BAD|.AN|", "|EZEN×BAD.AN|"},
		{"|NINDA₂×(ŠE.2(AŠ@c))|", "|NINDA₂×(ŠE.AŠ.AŠ)|"},
	}

	replacementTables = [][]pair{
		signListAliases,
		glyphNameNormalisations,
		readingSignNameFixes,
		readingNormalisations,
		fractionNormalisations,
		compoundFixes,
	}
)

// Normalize rewrites sign-list aliases, outdated glyph names and known
// misreadings into the forms the lookup tables use.
func Normalize(text string) string {
	for _, table := range replacementTables {
		for _, p := range table {
			text = strings.ReplaceAll(text, p.from, p.to)
		}
	}
	return text
}

// numberReadings spells out bare numbers as numeric sign readings.
var numberReadings = map[string]string{
	"1/2":   "1/2(diš)",
	"1/3":   "1/3(diš)",
	"1/4":   "1/3(iku)",
	"2/3":   "2/3(diš)",
	"5/6":   "5/6(diš)",
	"1":     "1(diš)",
	"2":     "2(diš)",
	"3":     "3(diš)",
	"4":     "4(diš)",
	"5":     "5(diš)",
	"6":     "6(diš)",
	"7":     "7(diš)",
	"8":     "8(diš)",
	"9":     "9(diš)",
	"10":    "1(u)",
	"11":    "1(u) 1(diš)",
	"12":    "1(u) 2(diš)",
	"14":    "1(u) 4(diš)",
	"18":    "1(u) 8(diš)",
	"20":    "2(u)",
	"21":    "2(u) 1(diš)",
	"23":    "2(u) 3(diš)",
	"24":    "2(u) 4(diš)",
	"25":    "2(u) 5(diš)",
	"30":    "3(u)",
	"36":    "3(u) 6(diš)",
	"40":    "4(u)",
	"50":    "5(u)",
	"60":    "6(u)",
	"600":   "1(gešʾu)",
	"900":   "1(gešʾu) 5(geš₂)",
	"3600":  "1(šarʾu@c)",
	"36000": "1(šar₂)",
}

var numericRe = regexp.MustCompile(`^\d+(/\d+)?(\.\d+)?(\s*\([^)]+\))?$`)

// glyphNameSwaps replaces glyph names the unicode table knows under
// another name.
var glyphNameSwaps = map[string]string{
	"UN":               "KALAM@g",
	"ŠITA₂":            "|ŠITA.GIŠ|",
	"DE₂":              "|UMUM×KASKAL|",
	"|ŠU₂.3xAN|":       "|ŠU₂.3×AN|",
	"|ŠU₂.DUN₃@g@g@s|": "|ŠU₂.DUN₃|",
	"LAK212":           "|A.TU.GABA.LIŠ|",
}
