// Copyright (c) 2013 Uwe Hoffmann. All rights reserved.

/*
Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are
met:

   * Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.
   * Redistributions in binary form must reproduce the above
copyright notice, this list of conditions and the following disclaimer
in the documentation and/or other materials provided with the
distribution.
   * Neither the name of Google Inc. nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
*/

// Package config models the CLI parameter block of §6 as a plain struct,
// populated by the cmd/oneg1r front end, and validates it before the driver
// runs.
package config

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/scalingdata/gcfg"
	"github.com/spacemonkeygo/errors"
)

// ErrorClass is the family of fatal configuration errors.
var ErrorClass = errors.NewClass("config")

// ConfigError reports an invalid argument combination: mutually exclusive
// flags, a missing DAT, or a zero thread count.
var ConfigError = ErrorClass.NewClass("bad_config")

// Options is the full parameter block the driver consumes.
type Options struct {
	Dat            string
	Regions        []string
	Languages      []string
	LanguageWeight int

	InputDir   string
	OutputDir  string
	Extension  string
	NoScan     bool
	Move       bool
	Mode       string // preview, copy, uncompressed, uncompressed_clrmamepro, compressed_zip, custom_dat
	Threads    int
	ChunkSize  int64
	MaxFileSize int64
	HeaderFile string

	// ConfirmAmbiguous lets a run proceed past candidate.AmbiguousCatalogError
	// once the user (or an unattended caller) has confirmed a Standard DAT
	// input is intentional, instead of treating it as fatal.
	ConfirmAmbiguous bool

	NoBIOS            bool
	NoProgram         bool
	NoEnhancementChip bool
	NoProto           bool
	NoBeta            bool
	NoDemo            bool
	NoSample          bool
	NoPirate          bool
	NoPromo           bool
	NoUnlicensed      bool
	NoAll             bool

	AllRegions         bool
	AllRegionsWithLang bool
	OnlySelectedLang   bool
	EarlyRevisions     bool
	EarlyVersions      bool
	InputOrder         bool
	PreferParents      bool
	PreferPrereleases  bool
	PrioritizeLanguages bool

	Prefer       []string
	Avoid        []string
	Exclude      []string
	ExcludeAfter []string
}

const (
	defaultLanguageWeight = 3
	defaultThreads        = 4
	defaultChunkSize      = 32 * 1024 * 1024
	defaultMaxFileSize    = 256 * 1024 * 1024
)

// Defaults returns an Options pre-filled with every default value §6 names.
func Defaults() Options {
	return Options{
		LanguageWeight: defaultLanguageWeight,
		Threads:        defaultThreads,
		ChunkSize:      defaultChunkSize,
		MaxFileSize:    defaultMaxFileSize,
		Mode:           "preview",
	}
}

// applyNoAll expands the no_all umbrella flag into every individual
// category filter, matching the teacher CLI's convention of one flag
// implying several.
func (o *Options) applyNoAll() {
	if !o.NoAll {
		return
	}
	o.NoBIOS = true
	o.NoProgram = true
	o.NoEnhancementChip = true
	o.NoProto = true
	o.NoBeta = true
	o.NoDemo = true
	o.NoSample = true
	o.NoPirate = true
	o.NoPromo = true
	o.NoUnlicensed = true
}

// Validate checks the invariants §7's ConfigError enumerates: a missing
// DAT, no selected regions, or a non-positive thread/weight count.
func (o *Options) Validate() error {
	o.applyNoAll()

	if o.Dat == "" {
		return ConfigError.New("dat file is required")
	}
	if len(o.Regions) == 0 {
		return ConfigError.New("at least one region must be selected")
	}
	if o.Threads <= 0 {
		return ConfigError.New("threads must be > 0, got %d", o.Threads)
	}
	if o.LanguageWeight <= 0 {
		return ConfigError.New("language_weight must be > 0, got %d", o.LanguageWeight)
	}
	if o.ChunkSize <= 0 {
		return ConfigError.New("chunk_size must be > 0, got %d", o.ChunkSize)
	}
	if o.MaxFileSize <= 0 {
		return ConfigError.New("max_file_size must be > 0, got %d", o.MaxFileSize)
	}
	if o.AllRegions && o.OnlySelectedLang {
		return ConfigError.New("all_regions and only_selected_lang are mutually exclusive")
	}
	if o.NoScan && o.InputDir == "" {
		return ConfigError.New("no_scan requires an input_dir to resolve candidates by name")
	}
	switch o.Mode {
	case "", "preview", "copy", "uncompressed", "uncompressed_clrmamepro", "compressed_zip", "custom_dat":
	default:
		return ConfigError.New("unrecognized mode %q", o.Mode)
	}
	return nil
}

// IniFile mirrors an oneg1r.ini on-disk defaults file, in the same
// section/key ini shape the teacher CLI reads with gcfg. Flags passed on the
// command line always win; LoadIniFile only fills in fields the caller
// hasn't already set from a flag.
type IniFile struct {
	Selection struct {
		Regions        []string
		Languages      []string
		LanguageWeight int
	}
	Paths struct {
		Dat        string
		InputDir   string
		OutputDir  string
		HeaderFile string
	}
	Scan struct {
		Threads     int
		ChunkSize   int64
		MaxFileSize int64
	}
}

// LoadIniFile reads an oneg1r.ini at path and overlays its values onto o,
// without clobbering any field the caller already populated from flags
// (zero-value fields are the only ones filled in).
func LoadIniFile(path string, o *Options) error {
	var ini IniFile
	if err := gcfg.ReadFileInto(&ini, path); err != nil {
		return ConfigError.Wrap(err)
	}

	if len(o.Regions) == 0 {
		o.Regions = ini.Selection.Regions
	}
	if len(o.Languages) == 0 {
		o.Languages = ini.Selection.Languages
	}
	if o.LanguageWeight == 0 {
		o.LanguageWeight = ini.Selection.LanguageWeight
	}
	if o.Dat == "" {
		o.Dat = ini.Paths.Dat
	}
	if o.InputDir == "" {
		o.InputDir = ini.Paths.InputDir
	}
	if o.OutputDir == "" {
		o.OutputDir = ini.Paths.OutputDir
	}
	if o.HeaderFile == "" {
		o.HeaderFile = ini.Paths.HeaderFile
	}
	if o.Threads == 0 {
		o.Threads = ini.Scan.Threads
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = ini.Scan.ChunkSize
	}
	if o.MaxFileSize == 0 {
		o.MaxFileSize = ini.Scan.MaxFileSize
	}
	return nil
}

// ResolvePatternList expands a §9 pattern-list argument: either inline
// comma-separated tokens, or (when prefixed "file:") one pattern per line
// of the named file.
func ResolvePatternList(arg string) ([]string, error) {
	if arg == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(arg, "file:"); ok {
		return readLines(path)
	}
	return strings.Split(arg, ","), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ConfigError.Wrap(err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, ConfigError.Wrap(err)
	}
	return lines, nil
}

// CompilePatterns compiles each pattern in patterns, case-sensitive by
// default (§6). When asRegex is false (the default), each pattern is
// escaped and matched as a literal substring; when true, the pattern is
// compiled as-is.
func CompilePatterns(patterns []string, asRegex, ignoreCase bool) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		expr := p
		if !asRegex {
			expr = regexp.QuoteMeta(p)
		}
		if ignoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, ConfigError.Wrap(err)
		}
		out = append(out, re)
	}
	return out, nil
}
