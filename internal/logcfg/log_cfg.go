package logcfg

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// RunLoggerConfig configures logrus: log level, caller formatting and writing logs both
// to stdout and to a rotated file. An unknown level falls back to info.
func RunLoggerConfig(envLogs, fileName string) {
	logLevel, err := logrus.ParseLevel(envLogs)
	if err != nil {
		logrus.WithError(err).Warnf("Unknown log level %q, using info", envLogs)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)

	logrus.SetFormatter(&logrus.TextFormatter{
		CallerPrettyfier: func(f *runtime.Frame) (function string, file string) {
			_, filename := path.Split(f.File)
			filename = fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
			return "", filename
		},
	})
	logrus.SetOutput(io.MultiWriter(os.Stdout, NewRotatingFile(fileName)))
}

// NewRotatingFile returns the lumberjack writer used for the log file.
func NewRotatingFile(fileName string) *lumberjack.Logger {
	if fileName == "" {
		fileName = "tgBot.log"
	}
	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
}
