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

// Package selector walks each parent group's filtered, ordered candidate
// list and resolves the first one whose ROMs can be found, either through
// the hash index or by name in the input directory, then emits or
// transfers the winning files.
package selector

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/golang/glog"
	"github.com/romtools/oneg1r/candidate"
	"github.com/romtools/oneg1r/index"
	"github.com/romtools/oneg1r/score"
)

// OutputMode is how a resolved candidate's files are surfaced, extending
// spec.md §4.6's "list or transfer" with the output shapes the original
// tool's CLI exposes (recompression modes are out of scope, see
// SPEC_FULL.md).
type OutputMode int

const (
	ModePreview OutputMode = iota
	ModeCopy
	ModeUncompressed
	ModeUncompressedClrMamePro
	ModeCompressedZip
	ModeCustomDat
)

// ParseMode maps a config.Options.Mode string onto an OutputMode, defaulting
// an empty string to ModePreview.
func ParseMode(s string) (OutputMode, error) {
	switch s {
	case "", "preview":
		return ModePreview, nil
	case "copy":
		return ModeCopy, nil
	case "uncompressed":
		return ModeUncompressed, nil
	case "uncompressed_clrmamepro":
		return ModeUncompressedClrMamePro, nil
	case "compressed_zip":
		return ModeCompressedZip, nil
	case "custom_dat":
		return ModeCustomDat, nil
	default:
		return ModePreview, fmt.Errorf("selector: unrecognized mode %q", s)
	}
}

// ResolvedFile is one file chosen for transfer or listing: its source path
// (archive or plain file), optional archive member name, and the
// destination name it should be placed under.
type ResolvedFile struct {
	SourcePath   string
	SourceMember string
	IsArchive    bool
	DestName     string
}

// Resolution is the outcome of resolving one parent group: the winning
// candidate and the files chosen for it.
type Resolution struct {
	Parent    string
	Candidate *candidate.Candidate
	Files     []ResolvedFile
}

// Transferer performs the actual file move/copy; grounded on the teacher's
// worker.Cp/Mv wrappers around exec.Command.
type Transferer interface {
	Copy(src, dst string) error
	Move(src, dst string) error
}

// FilterAndOrder applies §4.5's filter pass then sorts by the key
// generator's total order, returning the winnowed, ordered candidate list
// for one parent group.
func FilterAndOrder(cands []*candidate.Candidate, scoreOpts score.Options, kg score.KeyGenerator, exclude []*regexp.Regexp, onlySelectedLang, allRegions, allRegionsWithLang bool) []score.Ranked {
	score.PadGroup(cands)

	var ranked []score.Ranked
	for _, c := range cands {
		if matchesAny(exclude, c.Name) {
			continue
		}
		s := score.Compute(c, scoreOpts)

		if onlySelectedLang && s.Languages >= 0 {
			continue
		}
		if !allRegions && s.Region == score.UnselectedRegion {
			if !(allRegionsWithLang && s.Languages < 0) {
				continue
			}
		}

		ranked = append(ranked, score.Ranked{Candidate: c, Score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return kg.Less(ranked[i], ranked[j])
	})
	return ranked
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// Driver resolves ordered candidate lists against either a hash index or
// the input directory, and hands the winning files to a Transferer.
type Driver struct {
	Index     map[string]index.Location // nil when scanning was skipped (no_scan)
	InputDir  string
	OutputDir string
	Extension string
	Mode      OutputMode
}

// Resolve walks ordered candidates for one parent group and returns the
// first one whose ROMs can be found, or nil if none succeed (§4.6). A
// leading candidate matching excludeAfter causes the whole group to be
// skipped, returning (nil, nil).
func (d *Driver) Resolve(parent string, ordered []score.Ranked, excludeAfter []*regexp.Regexp) (*Resolution, error) {
	if len(ordered) == 0 {
		return nil, nil
	}
	if matchesAny(excludeAfter, ordered[0].Candidate.Name) {
		glog.V(1).Infof("selector: %q excluded-after, skipping parent group %q", ordered[0].Candidate.Name, parent)
		return nil, nil
	}

	for _, r := range ordered {
		files, ok := d.resolveCandidate(r.Candidate)
		if !ok {
			glog.V(1).Infof("selector: candidate %q unresolved, trying next", r.Candidate.Name)
			continue
		}
		return &Resolution{Parent: parent, Candidate: r.Candidate, Files: files}, nil
	}

	glog.Warningf("selector: no eligible candidates resolved for parent group %q", parent)
	return nil, nil
}

func (d *Driver) resolveCandidate(c *candidate.Candidate) ([]ResolvedFile, bool) {
	if d.Index != nil {
		return d.resolveByHash(c)
	}
	return d.resolveByName(c)
}

func (d *Driver) resolveByHash(c *candidate.Candidate) ([]ResolvedFile, bool) {
	var files []ResolvedFile
	for _, rom := range c.Roms {
		loc, ok := d.Index[rom.SHA1]
		if !ok {
			return nil, false
		}
		dest := destName(c, rom.Name, len(c.Roms) > 1)
		if loc.IsArchive {
			dest = c.Name
		}
		files = append(files, ResolvedFile{
			SourcePath:   loc.Path,
			SourceMember: loc.Member,
			IsArchive:    loc.IsArchive,
			DestName:     dest,
		})
	}
	return files, true
}

func (d *Driver) resolveByName(c *candidate.Candidate) ([]ResolvedFile, bool) {
	name := c.Name
	if d.Extension != "" {
		name += "." + d.Extension
	}
	path := filepath.Join(d.InputDir, name)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if info.IsDir() {
		var files []ResolvedFile
		for _, rom := range c.Roms {
			romPath := filepath.Join(path, rom.Name)
			if _, err := os.Stat(romPath); err != nil {
				return nil, false
			}
			files = append(files, ResolvedFile{
				SourcePath: romPath,
				DestName:   destName(c, rom.Name, len(c.Roms) > 1),
			})
		}
		return files, true
	}

	isArchive := d.Extension == "zip" || d.Extension == "7z"
	dest := c.Name + filepath.Ext(path)
	if isArchive {
		// Place appends the archive suffix itself.
		dest = c.Name
	}
	return []ResolvedFile{{
		SourcePath: path,
		IsArchive:  isArchive,
		DestName:   dest,
	}}, true
}

// destName applies §4.6's file placement rules: an archive keeps its own
// archive name; a non-archive candidate gets its own subdirectory when it
// has more than one rom, or when the rom's own relative path already has
// subdirectories of its own (so that structure is preserved rather than
// flattened into the output root); otherwise a single-rom, flat candidate
// goes straight into the output root.
func destName(c *candidate.Candidate, romName string, multiRom bool) string {
	if multiRom || hasSubdir(romName) {
		return filepath.Join(c.Name, romName)
	}
	return romName
}

// hasSubdir reports whether romName, as recorded in the dat, nests the rom
// under one or more directories of its own.
func hasSubdir(romName string) bool {
	return filepath.Dir(filepath.ToSlash(romName)) != "."
}

// Place returns the final destination path for a ResolvedFile under
// outputDir, applying §4.6's placement rules.
func Place(outputDir string, f ResolvedFile) string {
	if f.IsArchive {
		return filepath.Join(outputDir, f.DestName+".zip")
	}
	return filepath.Join(outputDir, f.DestName)
}

func (m OutputMode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeCopy:
		return "copy"
	case ModeUncompressed:
		return "uncompressed"
	case ModeUncompressedClrMamePro:
		return "uncompressed-clrmamepro"
	case ModeCompressedZip:
		return "compressed-zip"
	case ModeCustomDat:
		return "custom-dat"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}
