// Package logging configures the process-wide logrus logger: a prefixed text
// formatter on stdout and, when a directory is given, daily rotated log files.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

const (
	timestampFormat = "2006-01-02 15:04:05"
	logFileName     = "localwallet.log"
	rotationTime    = 24 * time.Hour
)

// Options selects log verbosity and optional file output
type Options struct {
	Level  string
	Dir    string
	MaxAge time.Duration
}

// Configure applies opts to the standard logrus logger
func Configure(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	formatter := newFormatter()
	// ANSI colors are noise in files.
	formatter.DisableColors = opts.Dir != ""
	logrus.SetFormatter(formatter)

	if opts.Dir == "" {
		return nil
	}
	hook, err := fileHook(opts.Dir, opts.MaxAge)
	if err != nil {
		return err
	}
	logrus.AddHook(hook)
	logrus.WithField("dir", opts.Dir).Info("Logs will be made persistent")
	return nil
}

func newFormatter() *prefixed.TextFormatter {
	formatter := new(prefixed.TextFormatter)
	formatter.TimestampFormat = timestampFormat
	formatter.FullTimestamp = true
	return formatter
}

func fileHook(dir string, maxAge time.Duration) (*lfshook.LfsHook, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	path := filepath.Join(dir, logFileName)
	writer, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open rotating log file: %w", err)
	}

	fileFormatter := newFormatter()
	fileFormatter.DisableColors = true
	return lfshook.NewHook(lfshook.WriterMap{
		logrus.TraceLevel: writer,
		logrus.DebugLevel: writer,
		logrus.InfoLevel:  writer,
		logrus.WarnLevel:  writer,
		logrus.ErrorLevel: writer,
		logrus.FatalLevel: writer,
		logrus.PanicLevel: writer,
	}, fileFormatter), nil
}
