package log

import (
	"log"
	"os"
)

func init() {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(os.Stdout)
}

// Level determines the level of verbose for logging messages.
type Level int

// Logging levels can be used to define verboseness.
const (
	Debug Level = iota
	Info
	Warn
	Error
	None Level = 99
)

var level = Warn

// SetLevel sets the logging level.
func SetLevel(l Level) {
	level = l
}

// Debugf prints logging messages in Debug level.
// Arguments are handled in the manner of fmt.Printf.
func Debugf(format string, v ...interface{}) {
	if level > Debug {
		return
	}

	log.Printf(format, v...)
}

// Infof prints logging messages in Info level.
// Arguments are handled in the manner of fmt.Printf.
func Infof(format string, v ...interface{}) {
	if level > Info {
		return
	}

	log.Printf(format, v...)
}

// Warnf prints logging messages in Warn level.
// Arguments are handled in the manner of fmt.Printf.
func Warnf(format string, v ...interface{}) {
	if level > Warn {
		return
	}

	log.Printf(format, v...)
}

// Errorf prints logging messages in Error level.
// Arguments are handled in the manner of fmt.Printf.
func Errorf(format string, v ...interface{}) {
	if level > Error {
		return
	}

	log.Printf(format, v...)
}

// Fatalf is equivalent to Errorf() followed by a call to os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}
