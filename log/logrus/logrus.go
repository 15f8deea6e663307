package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/qrcache"
)

var _ qrcache.Logger = Logger{}

// Logger adapts a logrus entry; fields become logrus.Fields.
type Logger struct{ E *logrus.Entry }

func New(l *logrus.Logger) Logger { return Logger{E: logrus.NewEntry(l)} }

func (l Logger) Debug(msg string, f qrcache.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f qrcache.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f qrcache.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f qrcache.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
