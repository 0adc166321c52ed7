package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/faissbuild/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("faissbuild", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
FaissBuild - a reproducible build pipeline for the FAISS GPU library and its Python wheel.

Usage:
  faissbuild [options] [MANIFEST_PATH]

Arguments:
  MANIFEST_PATH
    Path to the .hcl build manifest.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the build manifest.")
	mFlag := flagSet.String("m", "", "Path to the build manifest (shorthand).")
	versionFlag := flagSet.String("version", "", "Override the manifest's version identifier.")
	archsFlag := flagSet.String("archs", "", "Override compute architecture targets (comma-separated, e.g. 'sm_50,sm_61').")
	prefixFlag := flagSet.String("prefix", "", "Override the install prefix.")
	jobsFlag := flagSet.Int("jobs", 0, "Make parallelism. 0 uses the host core count.")
	installFlag := flagSet.Bool("install", false, "Install compiled artifacts into the prefix after packaging.")
	runTestsFlag := flagSet.Bool("run-tests", false, "Run the upstream test suite after the binding build.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *manifestFlag != "" {
		path = *manifestFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Manifest path determined.", "path", path)

	if path == "" {
		slog.Debug("No manifest path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var archs []string
	if *archsFlag != "" {
		for _, arch := range strings.Split(*archsFlag, ",") {
			arch = strings.TrimSpace(arch)
			if arch == "" {
				return nil, false, &ExitError{Code: 2, Message: "invalid archs: empty architecture target"}
			}
			archs = append(archs, arch)
		}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ManifestPath: path,
		Version:      *versionFlag,
		Archs:        archs,
		Prefix:       *prefixFlag,
		Jobs:         *jobsFlag,
		Install:      *installFlag,
		RunTests:     *runTestsFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
