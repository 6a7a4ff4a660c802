package runner

import (
	"io"

	"github.com/modelzoo/modelzoo/pkg/logging"
)

// noopLogger is used when Spawn is called without a Logger, so the
// supervisor never dereferences a nil interface.
type noopLogger struct{}

func (noopLogger) WithField(string, interface{}) logging.Logger         { return noopLogger{} }
func (noopLogger) WithFields(map[string]interface{}) logging.Logger     { return noopLogger{} }
func (noopLogger) WithError(error) logging.Logger                      { return noopLogger{} }

func (noopLogger) Debugf(string, ...interface{})   {}
func (noopLogger) Infof(string, ...interface{})    {}
func (noopLogger) Printf(string, ...interface{})   {}
func (noopLogger) Warnf(string, ...interface{})    {}
func (noopLogger) Warningf(string, ...interface{}) {}
func (noopLogger) Errorf(string, ...interface{})   {}
func (noopLogger) Fatalf(string, ...interface{})   {}
func (noopLogger) Panicf(string, ...interface{})   {}

func (noopLogger) Debug(...interface{})   {}
func (noopLogger) Info(...interface{})    {}
func (noopLogger) Print(...interface{})   {}
func (noopLogger) Warn(...interface{})    {}
func (noopLogger) Warning(...interface{}) {}
func (noopLogger) Error(...interface{})   {}
func (noopLogger) Fatal(...interface{})   {}
func (noopLogger) Panic(...interface{})   {}

func (noopLogger) Debugln(...interface{})   {}
func (noopLogger) Infoln(...interface{})    {}
func (noopLogger) Println(...interface{})   {}
func (noopLogger) Warnln(...interface{})    {}
func (noopLogger) Warningln(...interface{}) {}
func (noopLogger) Errorln(...interface{})   {}
func (noopLogger) Fatalln(...interface{})   {}
func (noopLogger) Panicln(...interface{})   {}

func (noopLogger) Writer() *io.PipeWriter {
	r, w := io.Pipe()
	go io.Copy(io.Discard, r)
	return w
}
