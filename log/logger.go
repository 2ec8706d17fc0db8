// Package log configures the logrus loggers used by the runner and handed to
// isolates through v8shim.Config.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var logger = logrus.New()

// Logger provides configuration for a logger.
type Logger struct {
	// Level is trace, debug, info, warn or error.
	Level string
	// Formatter is "text" or "json".
	Formatter  string
	OutputFile string
	JSONFormat JSONFormatConfig
	TextFormat TextFormatConfig
}

// JSONFormatConfig provides configuration for the JSON logger format.
type JSONFormatConfig struct {
	DisableTimestamp bool
	TimestampFormat  string
}

// TextFormatConfig provides configuration for the text logger format. Colors
// are used only on a terminal unless ForceColors is set.
type TextFormatConfig struct {
	ForceColors      bool
	DisableColors    bool
	DisableTimestamp bool
	TimestampFormat  string
}

// DefaultLoggerConfig returns a Logger instance with default values.
func DefaultLoggerConfig() Logger {
	return Logger{
		Level:     "info",
		Formatter: "text",
		TextFormat: TextFormatConfig{
			TimestampFormat: time.TimeOnly,
		},
	}
}

// IsColorTerminal reports whether w is a terminal that understands ANSI
// colors.
func IsColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) && runtime.GOOS != "windows"
}

// terminalFormatter writes a colored header line per entry, followed by one
// indented line per field:
//
//	12:04:05 WARNING [runner] uncaught exception
//	    exception: Error: boom
//	               at x.js:1:1
//
// Off a terminal it defers to logrus' plain key=value text.
type terminalFormatter struct {
	conf  TextFormatConfig
	plain logrus.Formatter
}

func newTerminalFormatter(conf TextFormatConfig) *terminalFormatter {
	return &terminalFormatter{
		conf: conf,
		plain: &logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: conf.DisableTimestamp,
			FullTimestamp:    true,
			TimestampFormat:  conf.TimestampFormat,
		},
	}
}

func levelColor(level logrus.Level) aurora.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return aurora.MagentaFg
	case logrus.WarnLevel:
		return aurora.BrownFg
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return aurora.RedFg
	default:
		return aurora.CyanFg
	}
}

// fieldString prints scalars as they are and anything structured through
// pretty.
func fieldString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(x)
	}
	return pretty.Sprint(v)
}

func (f *terminalFormatter) Format(e *logrus.Entry) ([]byte, error) {
	if f.conf.DisableColors || !(f.conf.ForceColors || IsColorTerminal(e.Logger.Out)) {
		return f.plain.Format(e)
	}
	b := e.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	color := levelColor(e.Level)
	if !f.conf.DisableTimestamp {
		fmt.Fprintf(b, "%s ", aurora.Faint(e.Time.Format(f.conf.TimestampFormat)))
	}
	level := fmt.Sprintf("%-7s", strings.ToUpper(e.Level.String()))
	fmt.Fprintf(b, "%s ", aurora.Colorize(level, color))
	if ns, ok := e.Data["ns"]; ok {
		fmt.Fprintf(b, "[%v] ", ns)
	}
	b.WriteString(e.Message)
	b.WriteByte('\n')

	keys := make([]string, 0, len(e.Data))
	width := 0
	for k := range e.Data {
		if k != "ns" {
			keys = append(keys, k)
			width = max(width, len(k))
		}
	}
	sort.Strings(keys)
	indent := "\n" + strings.Repeat(" ", 4+width+2)
	for _, k := range keys {
		key := fmt.Sprintf("%-*s", width+1, k+":")
		v := strings.ReplaceAll(fieldString(e.Data[k]), "\n", indent)
		fmt.Fprintf(b, "    %s %s\n", aurora.Colorize(key, color), v)
	}
	return b.Bytes(), nil
}

func parseLevel(level string) (logrus.Level, error) {
	if level == "" {
		return logrus.InfoLevel, nil
	}
	l, err := logrus.ParseLevel(level)
	if err != nil || l < logrus.ErrorLevel {
		return logrus.InfoLevel, fmt.Errorf("unknown log level: '%s'", level)
	}
	return l, nil
}

func formatter(conf Logger) (logrus.Formatter, error) {
	switch strings.ToLower(conf.Formatter) {
	case "json":
		return &logrus.JSONFormatter{
			DisableTimestamp: conf.JSONFormat.DisableTimestamp,
			TimestampFormat:  conf.JSONFormat.TimestampFormat,
		}, nil
	case "text", "":
		return newTerminalFormatter(conf.TextFormat), nil
	}
	return newTerminalFormatter(conf.TextFormat), fmt.Errorf("unknown log formatter: '%s'", conf.Formatter)
}

// Configure applies conf to l. Unknown levels and formatters fall back to
// info and text with a warning; an output file that cannot be opened is an
// error and leaves the output unchanged.
func Configure(l *logrus.Logger, conf Logger) error {
	level, err := parseLevel(conf.Level)
	if err != nil {
		l.Warningf("%v; defaulting to 'info'", err)
	}
	l.SetLevel(level)

	f, err := formatter(conf)
	if err != nil {
		l.Warningf("%v; defaulting to 'text'", err)
	}
	l.SetFormatter(f)

	if conf.OutputFile != "" {
		out, err := os.OpenFile(conf.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("can't open log output file %s: %v", conf.OutputFile, err)
		}
		l.SetOutput(out)
	}
	return nil
}

// ConfigureLogger configures the package logger.
func ConfigureLogger(conf Logger) error {
	return Configure(logger, conf)
}

// Errorf logs to the package logger.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// GetLogger returns the package logger.
func GetLogger() *logrus.Logger {
	return logger
}

// Sub returns an entry of the package logger tagged with the namespace ns.
// The text formatter prints it in front of the message.
func Sub(ns string) *logrus.Entry {
	return logger.WithField("ns", ns)
}
