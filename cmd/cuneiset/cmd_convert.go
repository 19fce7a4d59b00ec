package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/clean"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
	"github.com/julianknutsen/cuneiset/internal/signlist"
	"github.com/julianknutsen/cuneiset/internal/style"
)

// convertOutput is the --json form of a conversion.
type convertOutput struct {
	glyphs.Conversion
	GlyphCount int      `json:"glyph_count"`
	Issues     []string `json:"issues,omitempty"`
}

func newConvertCmd(stdout, stderr io.Writer) *cobra.Command {
	var cleanFirst, asJSON bool

	cmd := &cobra.Command{
		Use:   "convert [transliteration]",
		Short: "Convert a transliteration to glyph names and glyphs",
		Long: `Convert one transliteration using the lookup tables in the output
directory. Reads stdin when no argument is given; newlines separate lines
of the tablet.

Run 'cuneiset lookups' first to build the tables.

Examples:
  cuneiset convert "lugal-e e2 mu-du3"
  cuneiset convert --clean "[x x] lugal ..." --json
  echo "1(disz) udu" | cuneiset convert`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = strings.TrimRight(string(data), "\n")
			}
			return runConvert(cmd, stdout, stderr, text, cleanFirst, asJSON)
		},
	}

	cmd.Flags().BoolVar(&cleanFirst, "clean", false, "Apply the cleaning rules before converting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runConvert(cmd *cobra.Command, stdout, stderr io.Writer, text string, cleanFirst, asJSON bool) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no transliteration given")
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lookups, err := signlist.LoadLookups(cfg.OutputDir)
	if err != nil {
		return hintWrap(err)
	}

	var issues []string
	if cleanFirst {
		var found []clean.Issue
		text, found = clean.Text("input", text)
		for _, is := range found {
			issues = append(issues, is.String())
		}
		if !clean.HasText(text) {
			return fmt.Errorf("nothing left after cleaning")
		}
	}

	c := glyphs.NewConverter(lookups).Convert(text)
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(convertOutput{Conversion: c, GlyphCount: glyphs.CountGlyphs(c.Glyphs), Issues: issues})
	}

	for _, is := range issues {
		fmt.Fprintf(stderr, "%s %s\n", style.Warning.Render(style.IconWarn), is)
	}
	fmt.Fprintf(stdout, "%s\n%s\n%s\n",
		style.Dim.Render(c.Transliteration),
		c.GlyphNames,
		style.Glyph.Render(c.Glyphs))
	return nil
}
