// Package logger is the application's central log. Entries are tagged by the
// component that made them and kept in a bounded list that can be dumped or
// echoed as it grows.
package logger

import (
	"fmt"
	"io"
)

// only one central log for the whole application.
var central *logger

// maximum number of entries in the central logger.
const maxCentral = 256

func init() {
	central = newLogger(maxCentral)
}

// Log adds an entry to the central logger.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(tag, format string, args ...any) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// Clear all entries from central logger.
func Clear() {
	central.clear()
}

// Write contents of central logger to io.Writer. Returns false if the log is
// empty.
func Write(output io.Writer) bool {
	return central.write(output)
}

// Tail writes the last N entries to io.Writer.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho writes new entries to output as they are logged. Tags are coloured
// when output is a terminal. A nil output stops echoing.
func SetEcho(output io.Writer) {
	central.setEcho(output)
}
