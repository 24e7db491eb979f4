// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[decoder]
buffer_size = 4096
dictionary = "/etc/unbrotli/dict.bin"

[output]
suffix = ".brotli"
keep = true
`

func TestNewConfigDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := NewConfig(fs, []string{"a.br", "b.br"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.br", "b.br"}, cfg.CLI.Files)
	assert.Equal(t, DefaultBufferSize, cfg.TOML.Decoder.BufferSize)
	assert.Equal(t, "", cfg.TOML.Decoder.Dictionary)
	assert.Equal(t, DefaultSuffix, cfg.TOML.Output.Suffix)
	assert.False(t, cfg.TOML.Output.Keep)
	assert.False(t, cfg.TOML.Output.Force)
}

func TestNewConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/unbrotli/config.toml",
		[]byte(testConfig), 0644))
	require.NoError(t, afero.WriteFile(fs, "/etc/unbrotli/dict.bin",
		[]byte("dictionary"), 0644))

	cfg, err := NewConfig(fs, []string{"-C", "/etc/unbrotli/config.toml"})
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.TOML.Decoder.BufferSize)
	assert.Equal(t, "/etc/unbrotli/dict.bin", cfg.TOML.Decoder.Dictionary)
	assert.Equal(t, ".brotli", cfg.TOML.Output.Suffix)
	assert.True(t, cfg.TOML.Output.Keep)
	assert.False(t, cfg.TOML.Output.Force)
	assert.Empty(t, cfg.CLI.Files)
}

func TestNewConfigCLIOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/unbrotli/config.toml",
		[]byte(testConfig), 0644))
	require.NoError(t, afero.WriteFile(fs, "/other.dict",
		[]byte("dictionary"), 0644))

	cfg, err := NewConfig(fs, []string{
		"-C", "/etc/unbrotli/config.toml",
		"-f", "-S", ".bro", "-D", "/other.dict", "x.bro",
	})
	require.NoError(t, err)

	assert.Equal(t, ".bro", cfg.TOML.Output.Suffix)
	assert.Equal(t, "/other.dict", cfg.TOML.Decoder.Dictionary)
	assert.True(t, cfg.TOML.Output.Force)
	assert.True(t, cfg.TOML.Output.Keep)
	assert.Equal(t, []string{"x.bro"}, cfg.CLI.Files)
}

func TestNewConfigStdoutKeeps(t *testing.T) {
	cfg, err := NewConfig(afero.NewMemMapFs(), []string{"-c", "a.br"})
	require.NoError(t, err)
	assert.True(t, cfg.CLI.Stdout)
	assert.True(t, cfg.TOML.Output.Keep)
}

func TestNewConfigErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/small.toml",
		[]byte("[decoder]\nbuffer_size = 8\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/broken.toml",
		[]byte("[decoder\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/suffix.toml",
		[]byte("[output]\nsuffix = \"a/b\"\n"), 0644))
	require.NoError(t, fs.MkdirAll("/dir", 0755))

	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"-C", "/missing.toml"}},
		{"small buffer", []string{"-C", "/small.toml"}},
		{"broken toml", []string{"-C", "/broken.toml"}},
		{"suffix separator", []string{"-C", "/suffix.toml"}},
		{"missing dictionary", []string{"-D", "/missing.dict"}},
		{"dictionary directory", []string{"-D", "/dir"}},
		{"debug and quiet", []string{"-d", "-q"}},
		{"unknown flag", []string{"--unknown"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(fs, tc.args)
			assert.Error(t, err)
		})
	}
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		path   string
		suffix string
		target string
		ok     bool
	}{
		{"a.br", ".br", "a", true},
		{"dir/file.txt.br", ".br", "dir/file.txt", true},
		{"a.bro", ".bro", "a", true},
		{"a.txt", ".br", "", false},
		{".br", ".br", "", false},
		{"dir/.br", ".br", "", false},
		{"", ".br", "", false},
	}
	for _, tc := range tests {
		target, err := targetName(tc.path, tc.suffix)
		if !tc.ok {
			assert.Error(t, err, "path %q", tc.path)
			continue
		}
		require.NoError(t, err, "path %q", tc.path)
		assert.Equal(t, tc.target, target)
	}
}
