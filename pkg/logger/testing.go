package logger

import (
	"bytes"
	"io"
)

type testingTB interface {
	Helper()
	Cleanup(func())
}

// Stub the logger.Default and return the buffer where the logging output will be recorded.
// Stub will restore the logger.Default after the test.
func Stub(tb testingTB) *bytes.Buffer {
	tb.Helper()
	og := struct {
		Out   io.Writer
		Level Level
	}{Out: Default.Out, Level: Default.Level}
	tb.Cleanup(func() {
		Default.Out = og.Out
		Default.Level = og.Level
	})
	buf := &bytes.Buffer{}
	Default.Out = buf
	Default.Level = LevelDebug
	return buf
}
