/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package logger is a leveled, structured logger backed by
// github.com/sirupsen/logrus, kept to the slice the pool and s3 packages
// actually call: level-gated Debug/Info/Warning/Error entries carrying a
// message, an optional data payload and key/value fields. File/syslog hook
// plumbing belongs to a long-running service process; a connection pool and
// an S3 client never start one, so none of it lives here.
package logger

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level gates which entries are emitted, trimmed to the levels this
// package uses.
type Level uint8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	}
	return logrus.InfoLevel
}

// Fields carries structured key/value context alongside a log entry.
type Fields map[string]interface{}

// FuncLog returns a Logger instance; used for dependency injection so a
// component can accept "maybe a logger, maybe nil" without an import cycle.
type FuncLog func() Logger

// Logger is the structured logging surface pool and s3 depend on.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	WithFields(f Fields) Logger

	Debug(message string, data interface{}, args ...interface{})
	Info(message string, data interface{}, args ...interface{})
	Warning(message string, data interface{}, args ...interface{})
	Error(message string, data interface{}, args ...interface{})
	Fatal(message string, data interface{}, args ...interface{})
}

type lgr struct {
	mu     sync.Mutex
	base   *logrus.Logger
	fields Fields
}

// New returns a Logger writing to logrus' default (stderr, text formatter)
// output at InfoLevel. ctx is accepted for constructor-shape parity with
// the rest of the module but unused: this logger carries no per-request
// state that would need cancellation.
func New(_ context.Context) Logger {
	base := logrus.New()
	base.SetLevel(logrus.InfoLevel)

	return &lgr{base: base}
}

func (l *lgr) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.base.SetLevel(lvl.logrus())
}

func (l *lgr) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.base.GetLevel() {
	case logrus.DebugLevel:
		return DebugLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.FatalLevel:
		return FatalLevel
	}
	return InfoLevel
}

func (l *lgr) WithFields(f Fields) Logger {
	merged := make(Fields, len(l.fields)+len(f))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}
	return &lgr{base: l.base, fields: merged}
}

func (l *lgr) entry(data interface{}, args []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(l.fields)+2)
	for k, v := range l.fields {
		fields[k] = v
	}
	if data != nil {
		fields["data"] = data
	}
	if len(args) > 0 {
		fields["args"] = args
	}
	return l.base.WithFields(fields)
}

func (l *lgr) Debug(message string, data interface{}, args ...interface{}) {
	l.entry(data, args).Debug(message)
}

func (l *lgr) Info(message string, data interface{}, args ...interface{}) {
	l.entry(data, args).Info(message)
}

func (l *lgr) Warning(message string, data interface{}, args ...interface{}) {
	l.entry(data, args).Warn(message)
}

func (l *lgr) Error(message string, data interface{}, args ...interface{}) {
	l.entry(data, args).Error(message)
}

func (l *lgr) Fatal(message string, data interface{}, args ...interface{}) {
	l.entry(data, args).Fatal(message)
}
