package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

const stampLayout = "2006-01-02 15:04:05"

// Level tags are padded to a common width so log columns line up.
const (
	tagInfo  = "\033[32mINFO\033[0m "
	tagWarn  = "\033[33mWARN\033[0m "
	tagError = "\033[31mERROR\033[0m"
	tagDebug = "\033[36mDEBUG\033[0m"
)

// Logger writes timestamped, colour-tagged lines. Info, Warn and Debug go
// to stdout; Error goes to stderr.
type Logger struct {
	out *log.Logger
	err *log.Logger
}

func NewLogger() *Logger {
	return &Logger{
		out: log.New(os.Stdout, "", 0),
		err: log.New(os.Stderr, "", 0),
	}
}

func (l *Logger) line(dst *log.Logger, tag, format string, args ...any) {
	stamp := time.Now().Format(stampLayout)
	dst.Printf(fmt.Sprintf("[%s] %s %s\n", stamp, tag, format), args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.line(l.out, tagInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.line(l.out, tagWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.line(l.err, tagError, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.line(l.out, tagDebug, format, args...)
}
