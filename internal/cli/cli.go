package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/retracehq/retrace/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// Parse processes command-line arguments. It returns a validated app
// config, a boolean indicating the program should exit cleanly (help, no
// arguments), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("retrace", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
retrace - incremental evaluation of dependency-tracked models.

Usage:
  retrace [options] -eval STEP [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a .hcl or .yaml model declaration file.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model declaration file.")
	mFlag := flagSet.String("m", "", "Path to the model declaration file (shorthand).")
	modelNameFlag := flagSet.String("model-name", "", "Model to use when the file declares several.")
	var setFlags stringList
	flagSet.Var(&setFlags, "set", "Write input=value before evaluating. Repeatable.")
	var evalFlags stringList
	flagSet.Var(&evalFlags, "eval", "Step to evaluate and print. Repeatable.")
	sweepFlag := flagSet.String("sweep", "", "Sweep one input over values: input=v1,v2,... Steps are re-evaluated after each write.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *modelFlag != "" {
		path = *modelFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
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
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg, err := app.NewConfig(app.Config{
		ModelPath: path,
		ModelName: *modelNameFlag,
		Sets:      setFlags,
		Evals:     evalFlags,
		Sweep:     *sweepFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return cfg, false, nil
}
