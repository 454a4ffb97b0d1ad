package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pathline/pathline/internal/config"
	"github.com/pathline/pathline/internal/core"
	"github.com/pathline/pathline/internal/fsys"
	"github.com/pathline/pathline/internal/history"
	"github.com/pathline/pathline/internal/prompt"
	"github.com/pathline/pathline/internal/styles"
)

var BUILD_VERSION = "dev"

var cwdFlag = flag.String("cwd", "", "resolve relative input against this directory instead of the process working directory")
var labelFlag = flag.String("label", "", "override the prompt label")
var multiFlag = flag.Bool("multi", false, "collect paths until interrupted")
var dirOnlyFlag = flag.Bool("dirs", false, "complete and accept directories only")
var mustExistFlag = flag.Bool("exists", false, "reject paths that do not exist")
var noHistoryFlag = flag.Bool("no-history", false, "do not read or record recent paths")

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

const helpText = `pathline - interactive path entry with zsh-like tab completion

USAGE:
  pathline [options]

Reads a path interactively with tab completion and prints the accepted
path on stdout. With -multi, collects paths until Ctrl+C and prints one
per line.

OPTIONS:
`

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Print(helpText)
		flag.PrintDefaults()
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, styles.ERROR("pathline requires an interactive terminal"))
		os.Exit(1)
	}

	cfg, err := config.Load(core.ConfigFile())
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		os.Exit(1)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("failed to initialize logger: %v", err)))
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("-------- new pathline session --------", zap.Any("args", os.Args))

	result, err := run(cfg, logger)
	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		os.Exit(1)
	}

	for _, answer := range result.Answers {
		fmt.Println(answer)
	}

	// Propagate single-mode cancellation the way an interrupted process
	// would, so scripted callers can tell "no answer" from "empty answer".
	if result.Canceled {
		os.Exit(130)
	}
}

func run(cfg config.Config, logger *zap.Logger) (prompt.Result, error) {
	cwd := *cwdFlag
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return prompt.Result{}, fmt.Errorf("cannot determine working directory: %w", err)
		}
	}

	opts := prompt.Options{
		CWD:           cwd,
		Label:         cfg.Label,
		Multi:         cfg.Multi || *multiFlag,
		DirectoryOnly: cfg.DirectoryOnly || *dirOnlyFlag,
		Logger:        logger,
	}
	if *labelFlag != "" {
		opts.Label = *labelFlag
	}

	if *mustExistFlag {
		fs := fsys.OS{}
		dirOnly := opts.DirectoryOnly
		opts.Validate = func(value string, _ []string) prompt.ValidationResult {
			if dirOnly {
				if !fs.IsDirectory(value) {
					return prompt.Reject("%s is not a directory", displayPath(value))
				}
				return prompt.Accept
			}
			if !fs.Exists(value) {
				return prompt.Reject("%s does not exist", displayPath(value))
			}
			return prompt.Accept
		}
	}

	if !*noHistoryFlag && cfg.HistoryLimit > 0 {
		store, err := history.NewDefaultManager()
		if err != nil {
			// Recall is a convenience; a broken store should not block
			// path entry.
			logger.Warn("failed to open recent path store", zap.Error(err))
		} else {
			defer store.Close()
			opts.History = store
		}
	}

	return prompt.Run(context.Background(), opts)
}

// displayPath trims a trailing separator for messages so directory
// references read naturally.
func displayPath(value string) string {
	if len(value) > 1 {
		return strings.TrimSuffix(value, "/")
	}
	return value
}

func initializeLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	if BUILD_VERSION == "dev" {
		level = zap.DebugLevel
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(level)
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	// Logs only go to file to avoid interfering with the Bubble Tea UI.
	// Use `tail -f ~/.pathline/pathline.log` to monitor in real time.

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
