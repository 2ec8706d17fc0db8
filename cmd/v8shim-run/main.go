// v8shim-run is a command-line tool to run javascript.
//
// It's like node, but less useful.
//
// It runs the javascript files or http(s) URLs provided on the commandline in
// order until it finishes or an error occurs. Remote scripts are kept in an
// HTTP cache on disk. If no scripts are provided, this will enter a REPL mode
// where you can interactively run javascript.
//
// Other than the standard javascript environment, it provides console.*:
//
//	console.log, console.info: write args to stdout
//	console.debug:             write args to stdout, dimmed
//	console.warn:              write args to stderr in yellow
//	console.error:             write args to stderr in scary red
//
// and sleep(msec), which returns a promise resolved after msec milliseconds.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/augustoroman/v8shim/config"
	"github.com/augustoroman/v8shim/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	strict     bool
	noColor    bool
	cacheDir   string
	noCache    bool
	consoleLog bool
)

var rootCmd = &cobra.Command{
	Use:           "v8shim-run [script or URL]...",
	Short:         "Run javascript files, or start a REPL",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		if err := log.ConfigureLogger(conf.Logger); err != nil {
			return err
		}
		conf.Engine.Logger = log.Sub("engine")

		r, err := newRunner(conf, os.Stdout, os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			if err := r.close(); err != nil {
				log.Errorf("shutdown: %v", err)
			}
		}()

		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt)
		defer signal.Stop(interrupts)
		go func() {
			for range interrupts {
				r.terminate()
			}
		}()

		if len(args) == 0 {
			signal.Stop(interrupts) // the line editor handles ^C itself
			return r.repl()
		}
		return r.runAll(cmd.Context(), args)
	},
}

func loadConfig() (*config.Config, error) {
	conf := config.DefaultConfig()
	if configFile != "" {
		if err := config.ParseConfigFile(configFile, conf); err != nil {
			return nil, err
		}
	}

	var flags config.Config
	flags.Logger.Level = logLevel
	flags.Logger.Formatter = logFormat
	flags.Engine.StrictMode = strict
	flags.Cache.Dir = cacheDir
	flags.Cache.Disable = noCache
	if noColor {
		flags.Console.Color = "never"
	}
	if consoleLog {
		flags.Console.Mode = "log"
	}
	if err := conf.Override(flags); err != nil {
		return nil, err
	}
	if err := conf.SetDefaults(); err != nil {
		return nil, err
	}
	return conf, conf.Validate()
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "log format: text or json")
	flags.BoolVar(&strict, "strict", false, "run every script in strict mode")
	flags.BoolVar(&noColor, "no-color", false, "disable colored console output")
	flags.StringVar(&cacheDir, "cache-dir", "", "directory of the remote script cache")
	flags.BoolVar(&noCache, "no-cache", false, "always fetch remote scripts from the network")
	flags.BoolVar(&consoleLog, "console-log", false, "send console output to the logger")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
