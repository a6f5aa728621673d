// Package log provides the logger used by the device layer and the
// demo binaries. The core graph packages return errors and never log.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is the subset of logrus the audio packages depend on.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("ALGO_AUDIO_DEBUG"))
	if err != nil {
		debug = false
	}
}

// New returns a logger instance. Debug level is enabled through the
// ALGO_AUDIO_DEBUG environment variable.
func New() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
