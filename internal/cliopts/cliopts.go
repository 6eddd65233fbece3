// Package cliopts implements the CLI-flag-to-core boundary of §6: the
// flag grammar itself is an out-of-scope collaborator (§1 "the CLI
// parser"), but the `GwenOptions` record it delivers to the core, and
// the mapping from that record into a `config.Configuration`, are in
// scope.
//
// Grounded on the teacher's `cmd/app/main.go` flag declarations
// (`flag.BoolVar`/`flag.StringVar` into package-level vars, parsed once
// in `init`/`main`), adapted from "populate global vars" to "populate
// and return a GwenOptions value" since Gwen's core never reads a
// package-level singleton (§9 "Global mutable state").
package cliopts

import (
	"flag"
	"fmt"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/config"
)

// GwenOptions is the flag-parsed record the CLI collaborator hands to
// the core (§6 "delivered to the core as a GwenOptions record").
type GwenOptions struct {
	Batch         bool
	Parallel      bool
	DryRun        bool
	ReportDir     string
	Formats       []string
	Tags          []string
	MetaFiles     []string
	InputDataFile string
	ConfigFile    string

	// InitDir is set when --init was passed; "" when it was passed with
	// no directory argument means "use the current directory" and is
	// distinguished from "flag absent" by InitRequested.
	InitRequested bool
	InitDir       string

	Help    bool
	Version bool

	// Args are the remaining positional arguments: feature/meta file or
	// directory paths to evaluate.
	Args []string
}

// recognisedFormats is the closed set §6 names for -f/--formats.
var recognisedFormats = map[string]bool{"html": true, "junit": true, "json": true, "rp": true, "sysout": true}

// Parse parses args (typically os.Args[1:]) into a GwenOptions,
// following the short/long flag pairing the teacher uses for -h/--help
// and -v/--version.
func Parse(args []string) (GwenOptions, error) {
	fs := flag.NewFlagSet("gwen", flag.ContinueOnError)

	var opts GwenOptions
	var formats, tags, metaFiles string

	fs.BoolVar(&opts.Batch, "batch", false, "non-interactive; non-zero exit on failure; no REPL")
	fs.BoolVar(&opts.Batch, "b", false, "non-interactive; non-zero exit on failure; no REPL")
	fs.BoolVar(&opts.Parallel, "parallel", false, "parallel execution of feature units")
	fs.BoolVar(&opts.Parallel, "p", false, "parallel execution of feature units")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "translate + interpolate, do not execute side effects")
	fs.BoolVar(&opts.DryRun, "n", false, "translate + interpolate, do not execute side effects")
	fs.StringVar(&opts.ReportDir, "report", "", "report output directory")
	fs.StringVar(&opts.ReportDir, "r", "", "report output directory")
	fs.StringVar(&formats, "formats", "", "comma list from {html, junit, json, rp, sysout}")
	fs.StringVar(&formats, "f", "", "comma list from {html, junit, json, rp, sysout}")
	fs.StringVar(&tags, "tags", "", "include/exclude tag filter: @x,~@y,...")
	fs.StringVar(&tags, "t", "", "include/exclude tag filter: @x,~@y,...")
	fs.StringVar(&metaFiles, "meta", "", "additional meta files")
	fs.StringVar(&metaFiles, "m", "", "additional meta files")
	fs.StringVar(&opts.InputDataFile, "input-data", "", "CSV/JSON data file")
	fs.StringVar(&opts.InputDataFile, "i", "", "CSV/JSON data file")
	fs.StringVar(&opts.ConfigFile, "conf", "", "gwen.conf settings file")
	fs.BoolVar(&opts.Help, "help", false, "display help information and exit")
	fs.BoolVar(&opts.Help, "h", false, "display help information and exit")
	fs.BoolVar(&opts.Version, "version", false, "display version information and exit")
	fs.BoolVar(&opts.Version, "v", false, "display version information and exit")

	var initDir string
	fs.StringVar(&initDir, "init", "", "initialise a working directory")

	// --init takes an optional DIR: a bare --init (the last argument, or
	// followed by another flag) is handed to the flag package as --init=
	// so it parses with an empty directory.
	args = append([]string(nil), args...)
	for i, a := range args {
		if (a == "--init" || a == "-init") && (i+1 == len(args) || strings.HasPrefix(args[i+1], "-")) {
			args[i] = a + "="
		}
	}

	if err := fs.Parse(args); err != nil {
		return GwenOptions{}, err
	}

	if isFlagPassed(fs, "init") {
		opts.InitRequested = true
		opts.InitDir = initDir
	}

	opts.Formats = splitNonEmpty(formats)
	for _, f := range opts.Formats {
		if !recognisedFormats[f] {
			return GwenOptions{}, fmt.Errorf("unrecognised report format %q", f)
		}
	}
	opts.Tags = splitNonEmpty(tags)
	opts.MetaFiles = splitNonEmpty(metaFiles)
	opts.Args = fs.Args()
	return opts, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyTo overlays opts onto cfg, flags winning over whatever cfg
// already carries from a file/env overlay (§6 "flags win"). A flag that
// was not passed leaves cfg's value as it is.
func (opts GwenOptions) ApplyTo(cfg config.Configuration) config.Configuration {
	if opts.Batch {
		cfg.Batch = true
	}
	if opts.Parallel {
		cfg.Parallel = true
	}
	if opts.DryRun {
		cfg.DryRun = true
	}
	if opts.ReportDir != "" {
		cfg.ReportDir = opts.ReportDir
	}
	if len(opts.Formats) > 0 {
		cfg.Formats = opts.Formats
	}
	if len(opts.Tags) > 0 {
		cfg.Tags = opts.Tags
	}
	if len(opts.MetaFiles) > 0 {
		cfg.MetaFiles = opts.MetaFiles
	}
	if opts.InputDataFile != "" {
		cfg.InputDataFile = opts.InputDataFile
	}
	return cfg
}
