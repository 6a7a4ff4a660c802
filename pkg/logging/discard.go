package logging

import "io"

// discardLogger implements Logger by discarding everything. It backs
// Discard, used by packages that accept an optional Logger and must
// never dereference a nil interface when the caller omits one.
type discardLogger struct{}

// Discard is a Logger that does nothing. Use it as the fallback when a
// constructor receives a nil Logger.
var Discard Logger = discardLogger{}

func (discardLogger) WithField(string, interface{}) Logger     { return discardLogger{} }
func (discardLogger) WithFields(map[string]interface{}) Logger { return discardLogger{} }
func (discardLogger) WithError(error) Logger                   { return discardLogger{} }

func (discardLogger) Debugf(string, ...interface{})   {}
func (discardLogger) Infof(string, ...interface{})    {}
func (discardLogger) Printf(string, ...interface{})   {}
func (discardLogger) Warnf(string, ...interface{})    {}
func (discardLogger) Warningf(string, ...interface{}) {}
func (discardLogger) Errorf(string, ...interface{})   {}
func (discardLogger) Fatalf(string, ...interface{})   {}
func (discardLogger) Panicf(string, ...interface{})   {}

func (discardLogger) Debug(...interface{})   {}
func (discardLogger) Info(...interface{})    {}
func (discardLogger) Print(...interface{})   {}
func (discardLogger) Warn(...interface{})    {}
func (discardLogger) Warning(...interface{}) {}
func (discardLogger) Error(...interface{})   {}
func (discardLogger) Fatal(...interface{})   {}
func (discardLogger) Panic(...interface{})   {}

func (discardLogger) Debugln(...interface{})   {}
func (discardLogger) Infoln(...interface{})    {}
func (discardLogger) Println(...interface{})   {}
func (discardLogger) Warnln(...interface{})    {}
func (discardLogger) Warningln(...interface{}) {}
func (discardLogger) Errorln(...interface{})   {}
func (discardLogger) Fatalln(...interface{})   {}
func (discardLogger) Panicln(...interface{})   {}

func (discardLogger) Writer() *io.PipeWriter {
	r, w := io.Pipe()
	go io.Copy(io.Discard, r)
	return w
}
