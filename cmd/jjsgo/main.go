// Command jjsgo is a minimal embedding demo: given a script path, it
// wires a platform.Default + engine.Context together, runs the file as
// an ES module, drains the microtask queue, and prints the result.
// It is not a test262/CLI harness - that stays out of scope - just the
// same "run this file" entrypoint role k6's own cmd/ package plays.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lightsourceengine/jjs-go/engine"
	"github.com/lightsourceengine/jjs-go/platform"
)

var (
	configPath string
	pmapPath   string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jjsgo <script>",
		Short: "Run an ES module file through the jjs-go embedding API",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to an engine.Config YAML file")
	cmd.Flags().StringVar(&pmapPath, "pmap", "", "path to a package map JSON file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	return cmd
}

func runScript(cmd *cobra.Command, args []string) error {
	stdout := colorable.NewColorable(os.Stdout)
	stderr := colorable.NewColorable(os.Stderr)
	tty := isatty.IsTerminal(os.Stdout.Fd())

	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cfg.Color {
		tty = true
	}

	level, err := logrus.ParseLevel(levelOrDefault(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(stderr)
	log := logrus.NewEntry(logger)

	fs := afero.NewOsFs()
	pf := platform.NewDefault(fs, log)

	ctx := engine.NewContext(pf, cfg)
	ctx.Log = log

	if pmapPath != "" {
		data, err := os.ReadFile(pmapPath)
		if err != nil {
			return fmt.Errorf("reading package map: %w", err)
		}
		root, err := pf.Realpath(".")
		if err != nil {
			root = "."
		}
		if err := ctx.LoadPackageMap(string(data), root); err != nil {
			return fmt.Errorf("loading package map: %w", err)
		}
	}

	realm, err := ctx.NewRealm()
	if err != nil {
		return fmt.Errorf("creating realm: %w", err)
	}

	scriptPath, err := pf.Realpath(args[0])
	if err != nil {
		return fmt.Errorf("resolving %q: %w", args[0], err)
	}

	_, err = realm.ImportModule(scriptPath)
	realm.Jobs().Run()
	if err != nil {
		printResult(stderr, tty, color.FgRed, "error: "+err.Error())
		return err
	}

	printResult(stdout, tty, color.FgGreen, "module evaluated: "+scriptPath)
	return nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func printResult(w io.Writer, tty bool, attr color.Attribute, line string) {
	if !tty {
		fmt.Fprintln(w, line)
		return
	}
	color.New(attr).Fprintln(w, line)
}
