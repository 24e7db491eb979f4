// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// errNoSuffix marks a file that doesn't carry the suffix of compressed
// files. Such files are skipped.
var errNoSuffix = errors.New("unknown suffix -- ignored")

// targetName removes the suffix from path.
func targetName(path, suffix string) (target string, err error) {
	if len(path) == 0 {
		return "", errors.New("empty file name not supported")
	}
	if !strings.HasSuffix(path, suffix) {
		return "", &userPathError{Path: path, Err: errNoSuffix}
	}
	target = path[:len(path)-len(suffix)]
	if len(target) == 0 || strings.HasSuffix(target, "/") {
		return "", errors.Errorf("file name %s has no base part", path)
	}
	return target, nil
}

// tmpName returns the name of the temporary file the output is written
// to before it is renamed to the target name.
func tmpName(target string) string {
	return target + ".decompress"
}

// signalHandler removes the temporary file of the writer if the program
// is interrupted. The returned quit channel must be closed to terminate
// the signal handler go routine.
func signalHandler(w *writer) chan<- struct{} {
	quit := make(chan struct{})
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)
	go func() {
		select {
		case <-quit:
			signal.Stop(sigch)
			return
		case <-sigch:
			w.removeTmpFile()
			os.Exit(7)
		}
	}()
	return quit
}

// writer writes the decompressed data into a temporary file, which is
// renamed to the target name if the writer has been successful.
type writer struct {
	fs   afero.Fs
	f    afero.File
	name string
	*bufio.Writer
	success bool
}

// newWriter creates the temporary file for target. An existing target
// is only removed if force is set.
func newWriter(fs afero.Fs, target string, perm os.FileMode, force bool,
) (w *writer, err error) {
	if _, err = fs.Stat(target); !os.IsNotExist(err) {
		if !force {
			return nil, &userPathError{
				Path: target,
				Err:  errors.New("file exists")}
		}
		if err = fs.Remove(target); err != nil {
			return nil, err
		}
	}
	w = &writer{fs: fs, name: target}
	if w.f, err = fs.OpenFile(tmpName(target),
		os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm); err != nil {
		return nil, err
	}
	w.Writer = bufio.NewWriter(w.f)
	return w, nil
}

var errInval = errors.New("invalid value")

// Close closes the writer. Without success the temporary file is
// removed, otherwise it is renamed to the target name.
func (w *writer) Close() error {
	var err error

	if w.f == nil {
		return errInval
	}
	defer func() { w.f = nil }()

	if !w.success {
		if err = w.f.Close(); err != nil {
			return err
		}
		return w.fs.Remove(w.f.Name())
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = w.f.Close(); err != nil {
		return err
	}
	return w.fs.Rename(w.f.Name(), w.name)
}

// removeTmpFile removes the temporary file for the writer. It is used
// by the signal handler goroutine.
func (w *writer) removeTmpFile() {
	w.fs.Remove(w.f.Name())
}

// SetSuccess sets the success variable to true.
func (w *writer) SetSuccess() { w.success = true }

// reader is used as a file reader. The file is removed by Close if
// keep is not set and the reader has been successful.
type reader struct {
	fs afero.Fs
	f  afero.File
	io.Reader
	success bool
	keep    bool
}

// errNoRegular indicates that a file is not regular.
var errNoRegular = errors.New("no regular file")

// specialBits contain the special bits, which are not supported by
// unbrotli.
const specialBits = os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// newReader opens the file at path for reading.
func newReader(fs afero.Fs, path string, keep, force bool,
) (r *reader, err error) {
	var fi os.FileInfo
	if l, ok := fs.(afero.Lstater); ok {
		fi, _, err = l.LstatIfPossible(path)
	} else {
		fi, err = fs.Stat(path)
	}
	if err != nil {
		return nil, err
	}
	fm := fi.Mode()
	if !fm.IsRegular() {
		if !force || fm&os.ModeSymlink == 0 {
			return nil, &userPathError{Path: path, Err: errNoRegular}
		}
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	if fi, err = f.Stat(); err != nil {
		f.Close()
		return nil, err
	}
	fm = fi.Mode()
	if !fm.IsRegular() {
		f.Close()
		return nil, &userPathError{Path: path, Err: errNoRegular}
	}
	if fm&specialBits != 0 && !force {
		f.Close()
		return nil, &userPathError{Path: path,
			Err: errors.New("setuid, setgid and/or sticky bit set")}
	}
	return &reader{fs: fs, f: f, Reader: f, keep: keep}, nil
}

// Close closes the reader. The behaviour can be influenced by the
// success attribute of reader.
func (r *reader) Close() error {
	if r.f == nil {
		return errInval
	}
	defer func() { r.f = nil }()
	if err := r.f.Close(); err != nil {
		return err
	}
	if r.keep || !r.success {
		return nil
	}
	return r.fs.Remove(r.f.Name())
}

func (r *reader) SetSuccess() { r.success = true }

func (r *reader) Perm() os.FileMode {
	const defaultPerm os.FileMode = 0666

	fi, err := r.f.Stat()
	if err != nil {
		return defaultPerm
	}

	return fi.Mode() & defaultPerm
}

// userPathError represents a path error presentable to a user. In
// difference to os.PathError it removes the information of the
// operation returning the error.
type userPathError struct {
	Path string
	Err  error
}

// Error provides the error string for the path error.
func (e *userPathError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *userPathError) Unwrap() error { return e.Err }

// userError converts a path error into a generic error removing the
// operation information, which is not relevant for users of unbrotli.
func userError(err error) error {
	pe, ok := err.(*os.PathError)
	if !ok {
		return err
	}
	return &userPathError{Path: pe.Path, Err: pe.Err}
}
