package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type LogLevel int

const (
	VERBOSE LogLevel = iota
	DEBUG
	INFO
	SUCCESS
	NEW
	REMOVE
	STOP
	WARNING
	ERROR
	FATAL
)

var levelNames = map[string]LogLevel{
	"verbose": VERBOSE,
	"debug":   DEBUG,
	"info":    INFO,
	"success": SUCCESS,
	"warning": WARNING,
	"warn":    WARNING,
	"error":   ERROR,
	"fatal":   FATAL,
}

func (e LogLevel) String() string {
	return []string{
		"V",
		"D",
		"I",
		"✓",
		"+",
		"-",
		"X",
		"!",
		"!!",
		"PANIC",
	}[e]
}

func (e LogLevel) Level() LogLevel { return e }

func (e LogLevel) Color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),                //Verbose
		color.New(color.FgWhite, color.Italic),                //Debug
		color.New(color.FgWhite),                              //Info
		color.New(color.FgHiGreen),                            //Success
		color.New(color.FgGreen, color.Italic),                //New
		color.New(color.FgYellow, color.Italic),               //Remove
		color.New(color.FgHiYellow),                           //Stop
		color.New(color.FgYellow, color.Underline),            //Warning
		color.New(color.FgHiRed, color.Bold),                  //Error
		color.New(color.FgHiRed, color.Bold, color.Underline), //PANIC
	}[e]
}

// ParseLevel converts a textual level (as found in configuration) in to
// a LogLevel. Unrecognised values return an error and INFO.
func ParseLevel(name string) (LogLevel, error) {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl, nil
	}

	return INFO, fmt.Errorf("log level '%s' is not recognised", name)
}

type Logger interface {
	Emit(LogLevel, string, ...any)
	Verbosef(string, ...any)
	Debugf(string, ...any)
	Infof(string, ...any)
	Successf(string, ...any)
	Warnf(string, ...any)
	Errorf(string, ...any)
}

type loggerImpl struct {
	name string
}

func (l *loggerImpl) Emit(status LogLevel, message string, interpolations ...any) {
	manager.emit(status, l.name, message, interpolations...)
}

func (l *loggerImpl) Verbosef(message string, args ...any) { l.Emit(VERBOSE, message, args...) }
func (l *loggerImpl) Debugf(message string, args ...any)   { l.Emit(DEBUG, message, args...) }
func (l *loggerImpl) Infof(message string, args ...any)    { l.Emit(INFO, message, args...) }
func (l *loggerImpl) Successf(message string, args ...any) { l.Emit(SUCCESS, message, args...) }
func (l *loggerImpl) Warnf(message string, args ...any)    { l.Emit(WARNING, message, args...) }
func (l *loggerImpl) Errorf(message string, args ...any)   { l.Emit(ERROR, message, args...) }

type loggerMgr struct {
	sync.Mutex
	offset   int
	minLevel LogLevel
	out      io.Writer
}

var manager = &loggerMgr{minLevel: INFO, out: os.Stdout}

func (l *loggerMgr) emit(status LogLevel, name string, message string, interpolations ...any) {
	l.Lock()
	defer l.Unlock()

	if status < l.minLevel {
		return
	}

	if len(name) > l.offset {
		l.offset = len(name)
	}

	padding := strings.Repeat(" ", l.offset-len(name))
	msg := fmt.Sprintf("[%s] %s(%s) %s", name, padding, status, fmt.Sprintf(message, interpolations...))
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	status.Color().Fprint(l.out, msg)
}

// Get returns a logger which prefixes all output with the name provided.
func Get(name string) Logger {
	return &loggerImpl{name: name}
}

// SetMinLoggingLevel drops all output below the level provided.
func SetMinLoggingLevel(level LogLevel) {
	manager.Lock()
	defer manager.Unlock()
	manager.minLevel = level
}

// SetOutput redirects all loggers to the writer provided.
func SetOutput(w io.Writer) {
	manager.Lock()
	defer manager.Unlock()
	manager.out = w
}
