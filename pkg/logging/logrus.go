package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// logrusLogger adapts a *logrus.Entry to the Logger interface.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus wraps a *logrus.Logger as a Logger.
func NewLogrus(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// NewLogrusEntry wraps a *logrus.Entry as a Logger.
func NewLogrusEntry(e *logrus.Entry) Logger {
	return &logrusLogger{entry: e}
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: l.entry.WithError(err)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{})   { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})    { l.entry.Infof(format, args...) }
func (l *logrusLogger) Printf(format string, args ...interface{})   { l.entry.Printf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})    { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Warningf(format string, args ...interface{}) { l.entry.Warningf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{})   { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{})   { l.entry.Fatalf(format, args...) }
func (l *logrusLogger) Panicf(format string, args ...interface{})   { l.entry.Panicf(format, args...) }

func (l *logrusLogger) Debug(args ...interface{})   { l.entry.Debug(args...) }
func (l *logrusLogger) Info(args ...interface{})    { l.entry.Info(args...) }
func (l *logrusLogger) Print(args ...interface{})   { l.entry.Print(args...) }
func (l *logrusLogger) Warn(args ...interface{})    { l.entry.Warn(args...) }
func (l *logrusLogger) Warning(args ...interface{}) { l.entry.Warning(args...) }
func (l *logrusLogger) Error(args ...interface{})   { l.entry.Error(args...) }
func (l *logrusLogger) Fatal(args ...interface{})   { l.entry.Fatal(args...) }
func (l *logrusLogger) Panic(args ...interface{})   { l.entry.Panic(args...) }

func (l *logrusLogger) Debugln(args ...interface{})   { l.entry.Debugln(args...) }
func (l *logrusLogger) Infoln(args ...interface{})    { l.entry.Infoln(args...) }
func (l *logrusLogger) Println(args ...interface{})   { l.entry.Println(args...) }
func (l *logrusLogger) Warnln(args ...interface{})    { l.entry.Warnln(args...) }
func (l *logrusLogger) Warningln(args ...interface{}) { l.entry.Warningln(args...) }
func (l *logrusLogger) Errorln(args ...interface{})   { l.entry.Errorln(args...) }
func (l *logrusLogger) Fatalln(args ...interface{})   { l.entry.Fatalln(args...) }
func (l *logrusLogger) Panicln(args ...interface{})   { l.entry.Panicln(args...) }

func (l *logrusLogger) Writer() *io.PipeWriter { return l.entry.Writer() }
