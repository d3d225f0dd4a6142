package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. It is usable before Init with logrus
// defaults.
var Logger = logrus.New()

// Init sets level ("debug", "info", ...) and format ("json" or "text").
func Init(level, format string) {
	Logger.SetOutput(os.Stdout)
	if strings.EqualFold(format, "json") {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// Session returns an entry scoped to one session id.
func Session(id string) *logrus.Entry {
	return Logger.WithField("session_id", id)
}
