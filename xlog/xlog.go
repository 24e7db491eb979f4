// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

/*
Package xlog provides the Logger interface used for the trace output of the
brotli decoder.

The log.Logger type of the standard library satisfies the interface, so does
any adapter forwarding the messages to another logging package. A nil
Logger is valid and discards all messages, so tracing can be switched off
by setting the logger to nil without checking it at every call site.
*/
package xlog

import (
	"fmt"
	"strings"
)

// Logger is the interface supported by log.Logger.
type Logger interface {
	Output(calldepth int, s string) error
}

// Printf prints the arguments using the format string. If the logger is nil
// nothing will be printed.
func Printf(l Logger, format string, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprintf(format, v...))
	}
}

type prefixLogger struct {
	l      Logger
	prefix string
}

func (p *prefixLogger) Output(calldepth int, s string) error {
	return p.l.Output(calldepth+1, p.prefix+strings.TrimLeft(s, " "))
}

// Prefix returns a logger that puts prefix in front of every message. A nil
// logger results in nil.
func Prefix(l Logger, prefix string) Logger {
	if l == nil {
		return nil
	}
	return &prefixLogger{l: l, prefix: prefix}
}
