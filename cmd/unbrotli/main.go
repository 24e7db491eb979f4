// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

// Command unbrotli decompresses brotli files.
//
//	unbrotli [flags] [file...]
//
// A file name.br is decompressed to name and removed afterwards unless
// --keep or --stdout is given. Without files standard input is
// decompressed to standard output. Flags can also be set by environment
// variables with the prefix UNBROTLI_, which may be provided by a .env
// file in the current directory. The optional TOML file supports the
// sections [decoder] with buffer_size and dictionary and [output] with
// suffix, keep and force.
//
// The static dictionary of the brotli format is not supported. Streams
// referencing it fail with an invalid distance error; encoders use it for
// most text compressed at quality 4 or higher. Streams compressed with a
// custom dictionary can be decompressed by providing it with --dictionary.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

func main() {
	fs := afero.NewOsFs()

	cfg, err := NewConfig(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}

	setupLogging(logrus.StandardLogger(), cfg)
	displayConfig(cfg)

	d, err := newDecompressor(fs, cfg, os.Stdin, os.Stdout,
		logrus.StandardLogger())
	if err != nil {
		logrus.Errorf("unable to create decompressor: %s", err)
		os.Exit(1)
	}

	if err := d.Run(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func setupLogging(log *logrus.Logger, cfg *Config) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	switch {
	case cfg.CLI.Debug:
		log.SetLevel(logrus.DebugLevel)
		log.Debug("debug mode enabled")
	case cfg.CLI.Quiet:
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

func displayConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	logrus.Debug("unbrotli settings:")
	logrus.Debug("  [CLI]")
	logrus.Debugf("  version: %s", VERSION)
	logrus.Debugf("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Debugf("  stdout: %v", cfg.CLI.Stdout)
	logrus.Debugf("  files: %v", cfg.CLI.Files)
	logrus.Debug("")
	logrus.Debug("  [TOML]")

	for _, line := range strings.Split(pretty.Sprint(cfg.TOML), "\n") {
		logrus.Debugf("  %s", line)
	}
}
