// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	EnvVarPrefix = "UNBROTLI"

	DefaultSuffix     = ".br"
	DefaultBufferSize = 64 << 10

	MinBufferSize = 16
	MaxBufferSize = 64 << 20
)

// VERSION gets set during build
var VERSION = "0.0.0"

// Config combines the command line arguments with the optional TOML
// configuration file. Command line flags take precedence.
type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Decoder *TOMLDecoder `toml:"decoder"`
	Output  *TOMLOutput  `toml:"output"`
}

type TOMLDecoder struct {
	BufferSize int    `toml:"buffer_size"`
	Dictionary string `toml:"dictionary"`
}

type TOMLOutput struct {
	Suffix string `toml:"suffix"`
	Keep   bool   `toml:"keep"`
	Force  bool   `toml:"force"`
}

type CLI struct {
	Files []string `kong:"arg,optional,name='file',help='Files to decompress; none or - reads standard input'"`

	Stdout     bool   `kong:"help='Write to standard output and keep input files',short='c'"`
	Keep       bool   `kong:"help='Keep input files',short='k'"`
	Force      bool   `kong:"help='Overwrite existing output files',short='f'"`
	Suffix     string `kong:"help='Suffix of compressed files (default .br)',short='S'"`
	Dictionary string `kong:"help='Path to the custom dictionary used for compression',short='D'"`
	ConfigFile string `kong:"help='Path to an optional TOML config file',short='C'"`

	Debug   bool             `kong:"help='Enable debug output including decoder traces',short='d'"`
	Quiet   bool             `kong:"help='Suppress warnings',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`
}

// NewConfig parses the arguments, reads the config file from fs if one
// is given and validates the result.
func NewConfig(fs afero.Fs, args []string) (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs(args)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig, err := readTOML(fs, cli.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	cfg := &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}
	applyCLIArgs(cfg)

	if err := Validate(fs, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("unbrotli"),
		kong.Description("Decompresses brotli streams"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		},
	}, options...)
	return kong.New(cli, options...)
}

func readCLIArgs(args []string) (*CLI, error) {
	cli := &CLI{}
	parser, err := newParser(cli)
	if err != nil {
		return nil, errors.Wrap(err, "error creating parser")
	}

	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

// readTOML reads the config file. An empty file name results in the
// default configuration.
func readTOML(fs afero.Fs, file string) (*TOML, error) {
	tomlConfig := &TOML{}

	if file != "" {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, errors.Wrap(err, "error reading file")
		}

		if err := toml.Unmarshal(data, tomlConfig); err != nil {
			return nil, errors.Wrap(err, "error parsing TOML config")
		}
	}

	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	if err := validateTOML(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error validating TOML config")
	}

	return tomlConfig, nil
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Decoder == nil {
		t.Decoder = &TOMLDecoder{}
	}

	if t.Output == nil {
		t.Output = &TOMLOutput{}
	}

	if t.Decoder.BufferSize == 0 {
		t.Decoder.BufferSize = DefaultBufferSize
	}

	if t.Output.Suffix == "" {
		t.Output.Suffix = DefaultSuffix
	}

	return nil
}

// applyCLIArgs lets the command line flags override the config file.
func applyCLIArgs(c *Config) {
	if c.CLI.Suffix != "" {
		c.TOML.Output.Suffix = c.CLI.Suffix
	}

	if c.CLI.Dictionary != "" {
		c.TOML.Decoder.Dictionary = c.CLI.Dictionary
	}

	c.TOML.Output.Keep = c.TOML.Output.Keep || c.CLI.Keep || c.CLI.Stdout
	c.TOML.Output.Force = c.TOML.Output.Force || c.CLI.Force
}

func Validate(fs afero.Fs, c *Config) error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if err := validateCLIArgs(c.CLI); err != nil {
		return errors.Wrap(err, "error validating CLI args")
	}

	if err := validateTOML(c.TOML); err != nil {
		return errors.Wrap(err, "error validating toml config")
	}

	if p := c.TOML.Decoder.Dictionary; p != "" {
		info, err := fs.Stat(p)
		if err != nil {
			return errors.Wrap(err, "error checking dictionary")
		}

		if info.IsDir() {
			return errors.Errorf("dictionary %s is a directory", p)
		}
	}

	return nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if cli.Debug && cli.Quiet {
		return errors.New("--debug and --quiet are mutually exclusive")
	}

	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if err := validateTOMLDecoder(t.Decoder); err != nil {
		return errors.Wrap(err, "decoder error(s)")
	}

	if err := validateTOMLOutput(t.Output); err != nil {
		return errors.Wrap(err, "output error(s)")
	}

	return nil
}

func validateTOMLDecoder(d *TOMLDecoder) error {
	if d == nil {
		return errors.New("decoder cannot be empty")
	}

	if d.BufferSize < MinBufferSize || d.BufferSize > MaxBufferSize {
		return errors.Errorf("decoder.buffer_size must be between %d and %d", MinBufferSize, MaxBufferSize)
	}

	return nil
}

func validateTOMLOutput(o *TOMLOutput) error {
	if o == nil {
		return errors.New("output cannot be empty")
	}

	if o.Suffix == "" {
		return errors.New("output.suffix cannot be empty")
	}

	for _, c := range o.Suffix {
		if c == '/' || c == '\\' {
			return errors.Errorf("output.suffix %q contains a path separator", o.Suffix)
		}
	}

	return nil
}
