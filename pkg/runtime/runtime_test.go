package runtime

import (
	"encoding/json"
	"io"
	"os"

	"github.com/modelzoo/modelzoo/pkg/logging"
)

// testLogger discards everything; runtime driver tests only assert on argv
// and script construction, never on log output.
type testLogger struct{}

func (testLogger) WithField(string, interface{}) logging.Logger     { return testLogger{} }
func (testLogger) WithFields(map[string]interface{}) logging.Logger { return testLogger{} }
func (testLogger) WithError(error) logging.Logger                   { return testLogger{} }

func (testLogger) Debugf(string, ...interface{})   {}
func (testLogger) Infof(string, ...interface{})    {}
func (testLogger) Printf(string, ...interface{})   {}
func (testLogger) Warnf(string, ...interface{})    {}
func (testLogger) Warningf(string, ...interface{}) {}
func (testLogger) Errorf(string, ...interface{})   {}
func (testLogger) Fatalf(string, ...interface{})   {}
func (testLogger) Panicf(string, ...interface{})   {}

func (testLogger) Debug(...interface{})   {}
func (testLogger) Info(...interface{})    {}
func (testLogger) Print(...interface{})   {}
func (testLogger) Warn(...interface{})    {}
func (testLogger) Warning(...interface{}) {}
func (testLogger) Error(...interface{})   {}
func (testLogger) Fatal(...interface{})   {}
func (testLogger) Panic(...interface{})   {}

func (testLogger) Debugln(...interface{})   {}
func (testLogger) Infoln(...interface{})    {}
func (testLogger) Println(...interface{})   {}
func (testLogger) Warnln(...interface{})    {}
func (testLogger) Warningln(...interface{}) {}
func (testLogger) Errorln(...interface{})   {}
func (testLogger) Fatalln(...interface{})   {}
func (testLogger) Panicln(...interface{})   {}

func (testLogger) Writer() *io.PipeWriter {
	r, w := io.Pipe()
	go io.Copy(io.Discard, r)
	return w
}

// writeJSON marshals v to path, failing the calling test via the returned
// error rather than panicking.
func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
