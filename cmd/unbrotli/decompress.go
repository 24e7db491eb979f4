// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/J-j-4/brotli"
)

// traceLogger forwards the decoder traces to logrus at debug level.
type traceLogger struct {
	log logrus.FieldLogger
}

func (t traceLogger) Output(calldepth int, s string) error {
	t.log.Debug(strings.TrimRight(s, "\n"))
	return nil
}

// decompressor decompresses the files given on the command line.
type decompressor struct {
	fs     afero.Fs
	cfg    *Config
	dict   []byte
	stdin  io.Reader
	stdout io.Writer
	log    logrus.FieldLogger
}

func newDecompressor(fs afero.Fs, cfg *Config, stdin io.Reader,
	stdout io.Writer, log logrus.FieldLogger) (*decompressor, error) {
	d := &decompressor{
		fs:     fs,
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		log:    log,
	}

	if p := cfg.TOML.Decoder.Dictionary; p != "" {
		var err error
		if d.dict, err = afero.ReadFile(fs, p); err != nil {
			return nil, errors.Wrap(err, "error reading dictionary")
		}
		d.log.Debugf("loaded dictionary %s (%d bytes)", p, len(d.dict))
	}

	return d, nil
}

func (d *decompressor) readerConfig() brotli.ReaderConfig {
	cfg := brotli.ReaderConfig{
		BufferSize: d.cfg.TOML.Decoder.BufferSize,
		Dictionary: d.dict,
	}
	if d.cfg.CLI.Debug {
		cfg.Logger = traceLogger{log: d.log}
	}
	return cfg
}

// copy decompresses the stream provided by r into w.
func (d *decompressor) copy(w io.Writer, r io.Reader) (n int64, err error) {
	z, err := brotli.NewReaderConfig(r, d.readerConfig())
	if err != nil {
		return 0, err
	}
	defer z.Close()
	return io.Copy(w, z)
}

// Run processes all files and reports the number of failures as
// error. Without files standard input is decompressed to standard
// output.
func (d *decompressor) Run() error {
	files := d.cfg.CLI.Files
	if len(files) == 0 {
		files = []string{"-"}
	}

	var failed int
	for _, path := range files {
		err := d.processFile(path)
		switch {
		case err == nil:
		case errors.Is(err, errNoSuffix):
			d.log.Warn(err)
		default:
			d.log.Error(err)
			failed++
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d file(s) failed", failed, len(files))
	}

	return nil
}

// processFile decompresses the file with the given path.
func (d *decompressor) processFile(path string) error {
	if path == "-" {
		n, err := d.copy(d.stdout, d.stdin)
		if err != nil {
			return errors.Wrap(err, "stdin")
		}
		d.log.Debugf("decompressed stdin (%d bytes)", n)
		return nil
	}

	out := d.cfg.TOML.Output
	var target string
	if !d.cfg.CLI.Stdout {
		var err error
		if target, err = targetName(path, out.Suffix); err != nil {
			return err
		}
	}

	r, err := newReader(d.fs, path, out.Keep, out.Force)
	if err != nil {
		return userError(err)
	}
	defer r.Close()

	if d.cfg.CLI.Stdout {
		n, err := d.copy(d.stdout, r)
		if err != nil {
			return errors.Wrap(err, path)
		}
		d.log.Debugf("decompressed %s to stdout (%d bytes)", path, n)
		return nil
	}

	w, err := newWriter(d.fs, target, r.Perm(), out.Force)
	if err != nil {
		return userError(err)
	}
	defer w.Close()

	quitSignalHandler := signalHandler(w)
	n, err := d.copy(w, r)
	close(quitSignalHandler)
	if err != nil {
		return errors.Wrap(err, path)
	}
	w.SetSuccess()
	if err = w.Close(); err != nil {
		return userError(err)
	}
	r.SetSuccess()
	if err = r.Close(); err != nil {
		return userError(err)
	}

	d.log.Debugf("decompressed %s to %s (%d bytes)", path, target, n)
	return nil
}
