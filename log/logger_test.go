package log

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	return l, &buf
}

func TestConfigureLevels(t *testing.T) {
	for level, want := range map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"DEBUG":   logrus.DebugLevel,
		"trace":   logrus.TraceLevel,
		"info":    logrus.InfoLevel,
		"":        logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
	} {
		l, _ := newBufferedLogger()
		require.NoError(t, Configure(l, Logger{Level: level}))
		assert.Equal(t, want, l.GetLevel(), level)
	}
}

func TestConfigureUnknownLevelWarns(t *testing.T) {
	l, buf := newBufferedLogger()
	require.NoError(t, Configure(l, Logger{Level: "chatty", Formatter: "json"}))
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level: 'chatty'")
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferedLogger()
	require.NoError(t, Configure(l, Logger{
		Formatter:  "json",
		JSONFormat: JSONFormatConfig{DisableTimestamp: true},
	}))
	l.WithField("isolate", 3).Info("isolate initialized")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "isolate initialized", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["isolate"])
	assert.NotContains(t, entry, "time")
}

func TestTextFormatterIsPlainOffTerminal(t *testing.T) {
	l, buf := newBufferedLogger()
	require.NoError(t, Configure(l, DefaultLoggerConfig()))
	l.WithField("ns", "runner").Info("not a terminal")
	assert.Contains(t, buf.String(), `level=info msg="not a terminal" ns=runner`)
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestTextFormatterColors(t *testing.T) {
	l, buf := newBufferedLogger()
	conf := DefaultLoggerConfig()
	conf.TextFormat.ForceColors = true
	conf.TextFormat.DisableTimestamp = true
	require.NoError(t, Configure(l, conf))

	l.WithFields(logrus.Fields{
		"ns":        "runner",
		"exception": "Error: boom\n    at x.js:1:1",
		"counts":    []int{1, 2},
	}).Warn("uncaught exception")

	out := buf.String()
	lines := strings.Split(out, "\n")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, lines[0], "WARNING")
	assert.Contains(t, lines[0], "[runner] uncaught exception")
	assert.Contains(t, out, "[1 2]")
	// "    " + "exception:" + " " puts values at column 15.
	assert.Contains(t, out, "\n"+strings.Repeat(" ", 15)+"    at x.js:1:1")
	assert.Less(t, strings.Index(out, "counts"), strings.Index(out, "exception"))
	assert.Equal(t, 1, strings.Count(out, "runner"), "the namespace is not repeated as a field")
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l := logrus.New()
	require.NoError(t, Configure(l, Logger{Formatter: "json", OutputFile: path}))
	l.Info("to the file")

	l2 := logrus.New()
	err := Configure(l2, Logger{OutputFile: filepath.Join(t.TempDir(), "missing", "out.log")})
	assert.Error(t, err)
}

func TestSub(t *testing.T) {
	e := Sub("console")
	assert.Equal(t, "console", e.Data["ns"])
	assert.Same(t, GetLogger(), e.Logger)
}
