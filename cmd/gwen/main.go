// Command gwen is Gwen's batch-mode entrypoint: parse flags into a
// GwenOptions record, build a Configuration from flag/env/file
// overlays, assemble the feature-unit stream, and drive it through the
// launcher. The Gherkin parser itself and the REPL loop stay
// out-of-scope collaborators (§1) — this binary only wires the core
// around the seam where they would plug in.
//
// Grounded on the teacher's cmd/app/main.go: flag parsing into a
// Configuration, then registering and wiring services before calling
// k.Start(). Gwen has no actor kernel to start, so "wiring services"
// becomes "building a Launcher and calling Run".
package main

import (
	"fmt"
	"os"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/cliopts"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/featurestream"
	"github.com/gwen-interpreter/gwen/internal/gwenerr"
	"github.com/gwen-interpreter/gwen/internal/gwenlog"
	"github.com/gwen-interpreter/gwen/internal/launcher"
	"github.com/gwen-interpreter/gwen/internal/report"
	"github.com/gwen-interpreter/gwen/internal/status"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := cliopts.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.Version {
		fmt.Printf("gwen version %s %s %s\n", Version, BuildDate, Commit)
		return 0
	}
	if opts.Help {
		printHelp()
		return 0
	}
	if opts.InitRequested {
		if err := initWorkingDir(opts.InitDir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	cfg := config.Default()
	cfg.Version, cfg.BuildDate, cfg.Commit = Version, BuildDate, Commit
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFile(cfg, opts.ConfigFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	cfg = config.ApplyEnvDefaults(cfg, false, false)
	cfg = opts.ApplyTo(cfg)

	gwenlog.SetDefault(gwenlog.New("info", "", true))

	units, err := featurestream.Assemble(opts.Args, opts.InputDataFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	l := launcher.New(cfg, unwiredGherkinParser, &report.SysoutReporter{})
	summary := l.Run(units)
	return status.EvalExitCode(summary.OverallStatus)
}

// unwiredGherkinParser stands in for the Gherkin-AST collaborator this
// module consumes rather than implements (§1 "we consume an AST from a
// Cucumber-compatible Gherkin parser"). Swap this for a real parser's
// Parse function to make this binary actually runnable against feature
// files.
func unwiredGherkinParser(path string) (*ast.Spec, error) {
	return nil, gwenerr.New(gwenerr.Internal, "no Gherkin parser wired for %q: cmd/gwen ships the core's wiring only", path)
}

func initWorkingDir(dir string) error {
	if dir == "" {
		dir = "."
	}
	for _, sub := range []string{"features", "features/meta", "reports"} {
		if err := os.MkdirAll(dir+string(os.PathSeparator)+sub, 0o755); err != nil {
			return gwenerr.Wrap(gwenerr.IO, err, "initialising %q", dir)
		}
	}
	return nil
}

func printHelp() {
	fmt.Printf(`Usage: gwen [options] [feature-file-or-dir ...]

Options:
  -b, --batch              Non-interactive; non-zero exit on failure; no REPL
  -p, --parallel           Parallel execution of feature units
  -n, --dry-run            Translate + interpolate, do not execute side effects
  -r, --report DIR         Report output directory
  -f, --formats FMTS       Comma list from {html, junit, json, rp, sysout}
  -t, --tags TAGS          Include/exclude tag filter: @x,~@y,...
  -m, --meta FILES         Additional meta files
  -i, --input-data FILE    CSV/JSON data file
  --conf FILE              gwen.conf settings file
  --init [DIR]             Initialise a working directory
  -h, --help                Display this help information and exit
  -v, --version              Display version information and exit

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
