package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/pipeline"
)

// stageSpec describes a command that runs a single pipeline stage.
type stageSpec struct {
	stage   pipeline.Stage
	use     string
	aliases []string
	short   string
	long    string

	// fetchSignList adds --download, which fetches a missing sign list.
	fetchSignList bool
}

var (
	stageDownload = stageSpec{
		stage: pipeline.StageDownload,
		use:   "download",
		short: "Download the configured corpora and the sign list",
		long: `Download the Oracc ePSD2 corpus archives and the OSL sign list into
the cache directory. Corpora already in the cache are not fetched again.`,
	}
	stageExtract = stageSpec{
		stage: pipeline.StageExtract,
		use:   "extract",
		short: "Extract one transliteration CSV per corpus",
		long: `Walk every catalogued text of each downloaded corpus and write its
transliteration with catalogue metadata to 1_<corpus>.csv. Texts that
cannot be read are skipped and listed.`,
	}
	stageCollate = stageSpec{
		stage: pipeline.StageCollate,
		use:   "collate",
		short: "Merge, filter and deduplicate the per-corpus extracts",
		long: `Concatenate the per-corpus extracts, keep Sumerian tablets, standardise
periods and genres, and drop duplicates. Writes 2_tablets.csv.`,
	}
	stageClean = stageSpec{
		stage: pipeline.StageClean,
		use:   "clean",
		short: "Apply the transliteration cleaning rules",
		long: `Run the ordered cleaning rules over every transliteration, report
anything they cannot handle, and drop tablets left without text. Writes
3_cleaned_transliterations.csv.`,
	}
	stageLookups = stageSpec{
		stage:   pipeline.StageSignList,
		use:     "lookups",
		aliases: []string{"signlist"},
		short:   "Build the reading and glyph lookup tables from the sign list",
		long: `Read the OSL sign list (and the ePSD2 index when present) and write
morpheme_to_glyph_names.json and glyph_name_to_glyph.json. With --download
a missing sign list is fetched from sign_list_url first.`,
		fetchSignList: true,
	}
	stageGlyphs = stageSpec{
		stage: pipeline.StageGlyphs,
		use:   "glyphs",
		short: "Convert cleaned transliterations to glyph names and glyphs",
		long: `Convert every cleaned transliteration to glyph names and Unicode
glyphs, drop duplicates, and write 5_with_glyphs.csv plus one file per
genre.`,
	}
	stageSplit = stageSpec{
		stage: pipeline.StageSplit,
		use:   "split",
		short: "Split the dataset into train, validation and test",
		long: `Split 5_with_glyphs.csv into train.csv, validation.csv and test.csv,
stratified by period, with a seeded shuffle. Writes a summary workbook.`,
	}
)

func newStageCmd(stdout, stderr io.Writer, s stageSpec) *cobra.Command {
	opts := pipeline.Options{From: s.stage, To: s.stage}
	cmd := &cobra.Command{
		Use:     s.use,
		Aliases: s.aliases,
		Short:   s.short,
		Long:    s.long,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, stdout, stderr, opts)
		},
	}
	if s.fetchSignList {
		cmd.Flags().BoolVar(&opts.FetchSignList, "download", false, "Download the OSL sign list first if it is missing")
	}
	return cmd
}
