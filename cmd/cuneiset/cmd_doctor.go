package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/pipeline"
	"github.com/julianknutsen/cuneiset/internal/signlist"
	"github.com/julianknutsen/cuneiset/internal/style"
)

func newDoctorCmd(stdout, stderr io.Writer) *cobra.Command {
	var fix, check bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check your cuneiset setup for common issues",
		Long: `Run diagnostic checks on your cuneiset setup.

Verifies the configuration, the output directory, the sign lists, the
corpus cache, the lookup tables and the last run manifest.

Use --fix to attempt auto-repair of fixable issues.
Use --check to exit non-zero if any warnings or failures (useful for CI).

Examples:
  cuneiset doctor
  cuneiset doctor --fix
  cuneiset doctor --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				fmt.Fprintf(stdout, "  %s config: %v\n", style.Error.Render(style.IconFail), err)
				return errExit
			}
			client := oracc.NewClient(cfg.OraccBaseURL, cfg.CacheDir, cfg.DownloadTimeout)
			deps := &doctorDeps{cfg: cfg, stat: os.Stat, downloaded: client.Downloaded}
			return runDoctor(stdout, stderr, deps, fix, check)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Attempt to auto-fix issues")
	cmd.Flags().BoolVar(&check, "check", false, "Exit non-zero if any warnings or failures")

	return cmd
}

// diagnostic holds a single check result.
type diagnostic struct {
	name    string
	status  string // "pass", "warn", "fail"
	message string
	fixFunc func() error // nil if no auto-fix available
	fixHint string       // manual fix instructions
}

// doctorDeps holds injectable dependencies for testing.
type doctorDeps struct {
	cfg        *config.Config
	stat       func(string) (os.FileInfo, error)
	downloaded func(oracc.Corpus) bool
}

func runDoctor(stdout, _ io.Writer, deps *doctorDeps, fix, check bool) error {
	results := runDoctorChecks(stdout, deps)

	if fix {
		for _, d := range results {
			if (d.status == "fail" || d.status == "warn") && d.fixFunc != nil {
				fmt.Fprintf(stdout, "\n  Fixing %s...\n", d.name)
				if err := d.fixFunc(); err != nil {
					fmt.Fprintf(stdout, "    %s fix failed: %v\n", style.Error.Render(style.IconFail), err)
				} else {
					fmt.Fprintf(stdout, "    %s fixed\n", style.Success.Render(style.IconPass))
				}
			}
		}
	}

	if check {
		for _, d := range results {
			if d.status == "fail" || d.status == "warn" {
				return errExit
			}
		}
	}

	return nil
}

func runDoctorChecks(stdout io.Writer, deps *doctorDeps) []diagnostic {
	var results []diagnostic
	results = append(results, report(stdout, diagnostic{name: "config", status: "pass", message: "valid"}))
	results = append(results, report(stdout, checkOutputDir(deps)))
	results = append(results, report(stdout, checkSignList(deps)))
	results = append(results, report(stdout, checkEPSD2(deps)))
	results = append(results, report(stdout, checkCorpora(deps)))
	results = append(results, report(stdout, checkLookups(deps)))
	results = append(results, report(stdout, checkManifest(deps)))
	return results
}

// report prints d and returns it.
func report(stdout io.Writer, d diagnostic) diagnostic {
	fmt.Fprintf(stdout, "  %s %s: %s\n", style.StatusIcon(d.status), d.name, d.message)
	if d.status != "pass" && d.fixHint != "" {
		fmt.Fprintf(stdout, "      %s\n", style.Dim.Render(d.fixHint))
	}
	return d
}

func checkOutputDir(deps *doctorDeps) diagnostic {
	dir := deps.cfg.OutputDir
	info, err := deps.stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return diagnostic{
			name: "output dir", status: "warn", message: fmt.Sprintf("%s does not exist", dir),
			fixFunc: func() error { return os.MkdirAll(dir, 0o755) },
			fixHint: "It is created on the first run, or with --fix.",
		}
	case err != nil:
		return diagnostic{name: "output dir", status: "fail", message: err.Error()}
	case !info.IsDir():
		return diagnostic{name: "output dir", status: "fail", message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return diagnostic{name: "output dir", status: "pass", message: dir}
}

func checkSignList(deps *doctorDeps) diagnostic {
	path := deps.cfg.SignListFile()
	if _, err := deps.stat(path); err != nil {
		return diagnostic{
			name: "sign list", status: "fail", message: fmt.Sprintf("%s not found", path),
			fixHint: "Run: cuneiset download",
		}
	}
	return diagnostic{name: "sign list", status: "pass", message: path}
}

func checkEPSD2(deps *doctorDeps) diagnostic {
	path := deps.cfg.EPSD2SignListFile()
	if _, err := deps.stat(path); err != nil {
		return diagnostic{
			name: "ePSD2 index", status: "warn", message: "not found; lookups use the OSL sign list only",
			fixHint: "Set epsd2_sign_list_path to a local copy of the ePSD2 sign-list index.",
		}
	}
	return diagnostic{name: "ePSD2 index", status: "pass", message: path}
}

func checkCorpora(deps *doctorDeps) diagnostic {
	corpora, err := deps.cfg.SelectedCorpora()
	if err != nil {
		return diagnostic{name: "corpora", status: "fail", message: err.Error()}
	}
	var missing []string
	for _, c := range corpora {
		if !deps.downloaded(c) {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return diagnostic{
			name: "corpora", status: "warn",
			message: fmt.Sprintf("%d of %d not downloaded (%s)", len(missing), len(corpora), strings.Join(missing, ", ")),
			fixHint: "Run: cuneiset download",
		}
	}
	return diagnostic{name: "corpora", status: "pass", message: fmt.Sprintf("%d downloaded", len(corpora))}
}

func checkLookups(deps *doctorDeps) diagnostic {
	l, err := signlist.LoadLookups(deps.cfg.OutputDir)
	if err != nil {
		return diagnostic{
			name: "lookup tables", status: "warn", message: "not built",
			fixHint: "Run: cuneiset lookups",
		}
	}
	return diagnostic{name: "lookup tables", status: "pass", message: fmt.Sprintf("%d readings", l.Len())}
}

func checkManifest(deps *doctorDeps) diagnostic {
	m, err := pipeline.ReadManifest(deps.cfg.OutputDir)
	if errors.Is(err, os.ErrNotExist) {
		return diagnostic{name: "last run", status: "warn", message: "no run manifest", fixHint: "Run: cuneiset run"}
	}
	if err != nil {
		return diagnostic{name: "last run", status: "fail", message: err.Error()}
	}
	if m.Error != "" {
		return diagnostic{
			name: "last run", status: "warn", message: fmt.Sprintf("run %s failed: %s", m.RunID, m.Error),
			fixHint: "Run: cuneiset run",
		}
	}
	results, err := pipeline.Verify(deps.cfg.OutputDir, m)
	if err != nil {
		return diagnostic{name: "last run", status: "fail", message: err.Error()}
	}
	changed := 0
	for _, r := range results {
		if !r.Match {
			changed++
		}
	}
	if changed > 0 {
		return diagnostic{
			name: "last run", status: "warn",
			message: fmt.Sprintf("run %s: %d of %d outputs missing or modified", m.RunID, changed, len(results)),
			fixHint: "Run: cuneiset verify",
		}
	}
	return diagnostic{name: "last run", status: "pass", message: fmt.Sprintf("run %s, %d outputs verified", m.RunID, len(results))}
}
