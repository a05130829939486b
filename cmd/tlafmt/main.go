package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/domodwyer/tlafmt/internal/config"
	"github.com/domodwyer/tlafmt/internal/format"
	"github.com/domodwyer/tlafmt/internal/watch"
)

// version is overridden at release time via -ldflags.
var version = "0.8.0"

// Exit codes. A status of 3 is reserved for -check so callers can tell
// "needs formatting" apart from "could not format".
const (
	exitOK      = 0
	exitError   = 1
	exitDiffers = 3
)

// tlafmt formats TLA+ modules.
//
// By default the formatted text is written to stdout. Flags:
//
//	-w       rewrite each input file in place (write-temp-then-rename).
//	-check   print a diff for files whose formatting differs and exit
//	         with status 3; write nothing.
//	-stdin   read a single module from stdin instead of files.
//	-watch   watch the named files/directories and reformat .tla files
//	         in place as they change.
//	-width   target line width, overriding any config value.
//	-config  explicit config file instead of discovering .tlafmt.json.
func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tlafmt", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		writeInPlace bool
		checkOnly    bool
		fromStdin    bool
		watchMode    bool
		width        int
		configPath   string
		showVersion  bool
	)
	fs.BoolVar(&writeInPlace, "w", false, "rewrite each input file in place instead of printing to stdout")
	fs.BoolVar(&checkOnly, "check", false, "print a diff for unformatted files and exit 3")
	fs.BoolVar(&fromStdin, "stdin", false, "read from stdin instead of files")
	fs.BoolVar(&watchMode, "watch", false, "watch the inputs and reformat .tla files as they change")
	fs.IntVar(&width, "width", 0, "target line width (0 uses the config value)")
	fs.StringVar(&configPath, "config", "", "config file to use instead of discovering "+config.FileName)
	fs.BoolVar(&showVersion, "version", false, "print the tlafmt version and exit")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if showVersion {
		fmt.Fprintln(stdout, "tlafmt", version)
		return exitOK
	}

	switch {
	case writeInPlace && checkOnly:
		fmt.Fprintln(stderr, "tlafmt: cannot use -w together with -check")
		return exitError
	case fromStdin && (writeInPlace || watchMode):
		fmt.Fprintln(stderr, "tlafmt: -stdin is incompatible with -w and -watch")
		return exitError
	}

	if fromStdin {
		return runStdin(stdin, stdout, stderr, configPath, width, checkOnly)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "tlafmt: no input files (use -stdin to read standard input)")
		fs.Usage()
		return exitError
	}
	if watchMode {
		return runWatch(fs.Args(), stderr, configPath, width)
	}
	return runFiles(fs.Args(), stdout, stderr, configPath, width, checkOnly, writeInPlace)
}

func runStdin(stdin io.Reader, stdout, stderr io.Writer, configPath string, width int, checkOnly bool) int {
	in, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "tlafmt:", err)
		return exitError
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, "tlafmt:", err)
		return exitError
	}
	opts, err := loadOptions(configPath, cwd, width)
	if err != nil {
		fmt.Fprintln(stderr, "tlafmt:", err)
		return exitError
	}

	out, err := format.Source(string(in), opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if checkOnly {
		diff := format.NewDiff(string(in), out, format.DefaultDiffOptions())
		if diff.HasChanges() {
			fmt.Fprint(stdout, diff.Unified("stdin"))
			return exitDiffers
		}
		return exitOK
	}
	if _, err := io.WriteString(stdout, out); err != nil {
		fmt.Fprintln(stderr, "tlafmt:", err)
		return exitError
	}
	return exitOK
}

func runFiles(paths []string, stdout, stderr io.Writer, configPath string, width int, checkOnly, writeInPlace bool) int {
	code := exitOK
	differs := false

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stderr, "tlafmt:", err)
			code = exitError
			continue
		}

		opts, err := loadOptions(configPath, filepath.Dir(path), width)
		if err != nil {
			fmt.Fprintln(stderr, "tlafmt:", err)
			code = exitError
			continue
		}

		out, err := format.Source(string(data), opts)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			code = exitError
			continue
		}

		switch {
		case checkOnly:
			diff := format.NewDiff(string(data), out, format.DefaultDiffOptions())
			if diff.HasChanges() {
				fmt.Fprint(stdout, diff.Unified(path))
				differs = true
			}
		case writeInPlace:
			if out != string(data) {
				if err := writeFileAtomic(path, []byte(out)); err != nil {
					fmt.Fprintln(stderr, "tlafmt:", err)
					code = exitError
				}
			}
		default:
			if _, err := io.WriteString(stdout, out); err != nil {
				fmt.Fprintln(stderr, "tlafmt:", err)
				code = exitError
			}
		}
	}

	if code == exitOK && differs {
		return exitDiffers
	}
	return code
}

func runWatch(paths []string, stderr io.Writer, configPath string, width int) int {
	// The handler rewrites the file, which raises another write event.
	// The second pass sees already-formatted text and writes nothing, so
	// the loop terminates.
	handler := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		opts, err := loadOptions(configPath, filepath.Dir(path), width)
		if err != nil {
			return err
		}
		out, err := format.Source(string(data), opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if out == string(data) {
			return nil
		}
		return writeFileAtomic(path, []byte(out))
	}

	w, err := watch.New(paths, handler)
	if err != nil {
		fmt.Fprintln(stderr, "tlafmt:", err)
		return exitError
	}
	defer w.Close()

	go func() {
		for err := range w.Errors() {
			fmt.Fprintln(stderr, "tlafmt:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	w.Run(ctx)
	return exitOK
}

// loadOptions resolves the effective formatting options for an input
// rooted at dir, honouring an explicit -config path and a -width
// override, and rejects configs whose required_version excludes this
// build.
func loadOptions(configPath, dir string, width int) (format.Options, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Discover(dir)
	}
	if err != nil {
		return format.Options{}, err
	}
	if err := cfg.CheckVersion(version); err != nil {
		return format.Options{}, err
	}

	opts := cfg.Options()
	if width > 0 {
		opts.MaxWidth = width
	}
	return opts, nil
}

// writeFileAtomic replaces path via a temp file in the same directory
// so readers never observe a half-written module.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tlafmt-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(info.Mode().Perm())
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
