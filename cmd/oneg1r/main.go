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

// oneg1r is the command-line front end for the 1-Game-1-ROM selector: it
// parses a DAT catalog and an optional input directory, and for every
// parent game family picks the single best ROM set according to the
// region/language/flag priorities given on the command line.
package main

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/gonuts/flag"
	"github.com/romtools/oneg1r/archive"
	"github.com/romtools/oneg1r/candidate"
	"github.com/romtools/oneg1r/config"
	"github.com/romtools/oneg1r/datfile"
	"github.com/romtools/oneg1r/header"
	"github.com/romtools/oneg1r/index"
	"github.com/romtools/oneg1r/region"
	"github.com/romtools/oneg1r/score"
	"github.com/romtools/oneg1r/selector"
	"github.com/romtools/oneg1r/title"
	"github.com/uwedeportivo/commander"
)

func main() {
	cmd := &commander.Commander{
		Name: "oneg1r",
		Commands: []*commander.Command{
			selectCommand(),
		},
	}

	if err := cmd.Run(os.Args[1:]); err != nil {
		glog.Errorf("%v", err)
		os.Exit(1)
	}
}

func selectCommand() *commander.Command {
	fs := flag.NewFlagSet("select", flag.ExitOnError)

	opts := config.Defaults()
	dat := fs.String("dat", "", "path to the DAT catalog")
	regions := fs.String("regions", "", "comma-separated ordered region preference, e.g. USA,EUR,JPN")
	languages := fs.String("languages", "", "comma-separated ordered language preference")
	languageWeight := fs.Int("language_weight", 3, "weight applied to each selected-language rank")
	inputDir := fs.String("input_dir", "", "directory of ROM files to scan")
	outputDir := fs.String("output_dir", "", "directory selected ROMs are written to")
	extension := fs.String("extension", "", "file extension used for name-based resolution")
	noScan := fs.Bool("no_scan", false, "skip hashing input_dir, resolve candidates by name instead")
	move := fs.Bool("move", false, "move instead of copy")
	threads := fs.Int("threads", 4, "number of indexing worker goroutines")
	chunkSize := fs.Int("chunk_size", 32*1024*1024, "streaming hash chunk size in bytes")
	maxFileSize := fs.Int("max_file_size", 256*1024*1024, "largest buffer a header rule may be applied to")
	headerFile := fs.String("header_file", "", "path to an XML header detector file")
	iniFile := fs.String("ini_file", "", "path to an oneg1r.ini defaults file; flags override its values")
	mode := fs.String("mode", "preview", "output mode: preview, copy, uncompressed, uncompressed_clrmamepro, compressed_zip, custom_dat")
	confirmAmbiguous := fs.Bool("confirm_ambiguous", false, "proceed without prompting when the dat has no cloneof relationships anywhere")

	noBIOS := fs.Bool("no_bios", false, "drop BIOS entries")
	noProgram := fs.Bool("no_program", false, "drop (Program) entries")
	noEnhancementChip := fs.Bool("no_enhancement_chip", false, "drop (Enhancement Chip) entries")
	noProto := fs.Bool("no_proto", false, "drop prototypes")
	noBeta := fs.Bool("no_beta", false, "drop betas")
	noDemo := fs.Bool("no_demo", false, "drop demos")
	noSample := fs.Bool("no_sample", false, "drop samples")
	noPirate := fs.Bool("no_pirate", false, "drop (Pirate) entries")
	noPromo := fs.Bool("no_promo", false, "drop (Promo) entries")
	noUnlicensed := fs.Bool("no_unlicensed", false, "drop (Unl) entries")
	noAll := fs.Bool("no_all", false, "drop every category above")

	allRegions := fs.Bool("all_regions", false, "keep candidates outside the selected regions")
	allRegionsWithLang := fs.Bool("all_regions_with_lang", false, "keep out-of-region candidates that still match a selected language")
	onlySelectedLang := fs.Bool("only_selected_lang", false, "drop candidates with no selected language")
	earlyRevisions := fs.Bool("early_revisions", false, "prefer the earliest revision instead of the latest")
	earlyVersions := fs.Bool("early_versions", false, "prefer the earliest version instead of the latest")
	inputOrder := fs.Bool("input_order", false, "break remaining ties by DAT order")
	preferParents := fs.Bool("prefer_parents", false, "prefer parent entries over clones")
	preferPrereleases := fs.Bool("prefer_prereleases", false, "prefer prereleases over released titles")
	prioritizeLanguages := fs.Bool("prioritize_languages", false, "rank language match above region match")

	prefer := fs.String("prefer", "", "pattern list (inline or file:path) preferred in ties")
	avoid := fs.String("avoid", "", "pattern list (inline or file:path) avoided in ties")
	exclude := fs.String("exclude", "", "pattern list (inline or file:path) dropped entirely")
	excludeAfter := fs.String("exclude_after", "", "pattern list (inline or file:path) that skips the whole group")
	asRegex := fs.Bool("regex", false, "treat prefer/avoid/exclude/exclude_after patterns as regexes")
	ignoreCase := fs.Bool("ignore_case", false, "match prefer/avoid/exclude/exclude_after patterns case-insensitively")

	return &commander.Command{
		UsageLine: "select -dat <path> -regions <list> [options]",
		Short:     "pick the single best ROM per game family from a DAT catalog",
		Flag:      *fs,
		Run: func(cmd *commander.Command, args []string) error {
			opts.Dat = *dat
			opts.Regions = splitNonEmpty(*regions)
			opts.Languages = splitNonEmpty(*languages)
			opts.LanguageWeight = *languageWeight
			opts.InputDir = *inputDir
			opts.OutputDir = *outputDir
			opts.Extension = *extension
			opts.NoScan = *noScan
			opts.Move = *move
			opts.Threads = *threads
			opts.ChunkSize = int64(*chunkSize)
			opts.MaxFileSize = int64(*maxFileSize)
			opts.HeaderFile = *headerFile
			opts.Mode = *mode
			opts.ConfirmAmbiguous = *confirmAmbiguous
			opts.NoBIOS, opts.NoProgram, opts.NoEnhancementChip = *noBIOS, *noProgram, *noEnhancementChip
			opts.NoProto, opts.NoBeta, opts.NoDemo, opts.NoSample = *noProto, *noBeta, *noDemo, *noSample
			opts.NoPirate, opts.NoPromo, opts.NoUnlicensed, opts.NoAll = *noPirate, *noPromo, *noUnlicensed, *noAll
			opts.AllRegions, opts.AllRegionsWithLang, opts.OnlySelectedLang = *allRegions, *allRegionsWithLang, *onlySelectedLang
			opts.EarlyRevisions, opts.EarlyVersions, opts.InputOrder = *earlyRevisions, *earlyVersions, *inputOrder
			opts.PreferParents, opts.PreferPrereleases, opts.PrioritizeLanguages = *preferParents, *preferPrereleases, *prioritizeLanguages

			var err error
			if opts.Prefer, err = config.ResolvePatternList(*prefer); err != nil {
				return err
			}
			if opts.Avoid, err = config.ResolvePatternList(*avoid); err != nil {
				return err
			}
			if opts.Exclude, err = config.ResolvePatternList(*exclude); err != nil {
				return err
			}
			if opts.ExcludeAfter, err = config.ResolvePatternList(*excludeAfter); err != nil {
				return err
			}

			if *iniFile != "" {
				if err := config.LoadIniFile(*iniFile, &opts); err != nil {
					return err
				}
			}

			if err := opts.Validate(); err != nil {
				return err
			}

			return run(opts, *asRegex, *ignoreCase, os.Stdin, os.Stdout)
		},
	}
}

// promptYesNo writes prompt to out and reads a yes/no answer from in, used
// to get explicit user confirmation before continuing past a non-fatal
// warning rather than aborting the run outright.
func promptYesNo(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func run(opts config.Options, asRegex, ignoreCase bool, in io.Reader, out io.Writer) error {
	start := time.Now()

	reg := region.NewRegistry()

	dat, err := datfile.ParseFile(opts.Dat)
	if err != nil {
		return fmt.Errorf("oneg1r: reading dat: %w", err)
	}

	var rules *header.Ruleset
	if opts.HeaderFile != "" {
		rules, err = header.ParseFile(opts.HeaderFile)
		if err != nil {
			return fmt.Errorf("oneg1r: reading header file: %w", err)
		}
	}

	scanRequested := !opts.NoScan && opts.InputDir != ""
	group, err := candidate.Build(dat, reg, candidate.Options{
		Filters:          titleFilters(opts),
		RequireSHA1:      scanRequested,
		ConfirmAmbiguous: opts.ConfirmAmbiguous,
	})
	if candidate.AmbiguousCatalogError.Contains(err) {
		confirmed := opts.ConfirmAmbiguous
		if !confirmed {
			confirmed, err = promptYesNo(in, out, fmt.Sprintf("%v\ncontinue treating every game as its own family? [y/N] ", err))
			if err != nil {
				return fmt.Errorf("oneg1r: reading confirmation: %w", err)
			}
		}
		if !confirmed {
			return fmt.Errorf("oneg1r: aborted: dat has no cloneof relationships anywhere and was not confirmed")
		}
		group, err = candidate.Build(dat, reg, candidate.Options{
			Filters:          titleFilters(opts),
			RequireSHA1:      scanRequested,
			ConfirmAmbiguous: true,
		})
	}
	if err != nil {
		return err
	}

	var hashIndex map[string]index.Location
	if scanRequested {
		ix := index.New(index.Config{
			Threads:     opts.Threads,
			ChunkSize:   opts.ChunkSize,
			MaxFileSize: opts.MaxFileSize,
			Rules:       rules,
			Progress:    index.NewProgress(func(line string) { fmt.Fprintln(os.Stderr, line) }),
		})
		hashIndex, err = ix.Build(opts.InputDir)
		if err != nil {
			return fmt.Errorf("oneg1r: indexing %s: %w", opts.InputDir, err)
		}
	}

	prefer, err := config.CompilePatterns(opts.Prefer, asRegex, ignoreCase)
	if err != nil {
		return err
	}
	avoid, err := config.CompilePatterns(opts.Avoid, asRegex, ignoreCase)
	if err != nil {
		return err
	}
	exclude, err := config.CompilePatterns(opts.Exclude, asRegex, ignoreCase)
	if err != nil {
		return err
	}
	excludeAfter, err := config.CompilePatterns(opts.ExcludeAfter, asRegex, ignoreCase)
	if err != nil {
		return err
	}

	kg := score.KeyGenerator{
		PrioritizeLanguages: opts.PrioritizeLanguages,
		PreferPrereleases:   opts.PreferPrereleases,
		PreferParents:       opts.PreferParents,
		InputOrder:          opts.InputOrder,
		Prefer:              prefer,
		Avoid:               avoid,
	}
	scoreOpts := score.Options{
		Regions:        opts.Regions,
		Languages:      opts.Languages,
		LanguageWeight: opts.LanguageWeight,
		EarlyRevisions: opts.EarlyRevisions,
		EarlyVersions:  opts.EarlyVersions,
	}

	mode, err := selector.ParseMode(opts.Mode)
	if err != nil {
		return err
	}

	driver := &selector.Driver{
		Index:     hashIndex,
		InputDir:  opts.InputDir,
		OutputDir: opts.OutputDir,
		Extension: opts.Extension,
		Mode:      mode,
	}
	if opts.NoScan {
		driver.Index = nil
	}

	parents := append([]string(nil), group.Order...)
	sort.Strings(parents)

	transfer := selector.OSTransfer{}
	var customDatGames []datfile.Game

	selected := 0
	for _, parent := range parents {
		cands := group.ByParent[parent]
		ordered := selector.FilterAndOrder(cands, scoreOpts, kg, exclude, opts.OnlySelectedLang, opts.AllRegions, opts.AllRegionsWithLang)

		res, err := driver.Resolve(parent, ordered, excludeAfter)
		if err != nil {
			return err
		}
		if res == nil {
			continue
		}
		selected++
		fmt.Fprintln(out, res.Candidate.Name)

		if opts.OutputDir == "" {
			continue
		}
		if mode == selector.ModeCustomDat {
			customDatGames = append(customDatGames, gameFromResolution(res))
			continue
		}
		if err := transferResolution(res, opts, mode, transfer); err != nil {
			glog.Warningf("oneg1r: transferring %q: %v", res.Candidate.Name, err)
		}
	}

	if mode == selector.ModeCustomDat && opts.OutputDir != "" {
		if err := writeCustomDat(filepath.Join(opts.OutputDir, "oneg1r-custom.dat"), dat.Header, customDatGames); err != nil {
			return fmt.Errorf("oneg1r: writing custom dat: %w", err)
		}
	}

	glog.Infof("oneg1r: selected %d of %d parent groups in %s",
		selected, len(parents), humanize.RelTime(start, time.Now(), "", ""))
	return nil
}

// transferResolution places a resolved candidate's files under opts.OutputDir
// according to mode: ModePreview is a no-op (already listed by the caller);
// ModeCopy carries each file (or whole source archive) intact; the
// uncompressed modes extract every rom individually, even ones living
// inside an archive; ModeCompressedZip packs every rom into one fresh
// torrentzip. ModeCustomDat is handled by the caller instead, since it
// accumulates across every resolution rather than acting per-candidate.
func transferResolution(res *selector.Resolution, opts config.Options, mode selector.OutputMode, transfer selector.OSTransfer) error {
	switch mode {
	case selector.ModePreview:
		return nil
	case selector.ModeCompressedZip:
		dst := filepath.Join(opts.OutputDir, res.Candidate.Name+".zip")
		return selector.WriteCompressedZip(dst, res.Files, openResolvedFile)
	case selector.ModeUncompressed, selector.ModeUncompressedClrMamePro:
		forceSubdir := mode == selector.ModeUncompressedClrMamePro
		for _, rf := range res.Files {
			r, err := openResolvedFile(rf)
			if err != nil {
				return err
			}
			dst := filepath.Join(opts.OutputDir, romDestName(res, rf, forceSubdir))
			err = writeExtractedFile(r, dst)
			r.Close()
			if err != nil {
				return err
			}
		}
		return nil
	default: // ModeCopy
		return copyOrMoveWhole(res, opts, transfer)
	}
}

// copyOrMoveWhole carries each resolved file intact. Archive-backed roms are
// carried by copying (or moving) the whole source archive under the
// candidate's name, per the rule that a matched archive keeps the candidate
// name plus .zip regardless of how many roms it holds; plain files follow
// destName's subdirectory-per-multi-rom placement.
func copyOrMoveWhole(res *selector.Resolution, opts config.Options, transfer selector.OSTransfer) error {
	seenArchives := make(map[string]bool)

	for _, rf := range res.Files {
		if rf.IsArchive {
			if seenArchives[rf.SourcePath] {
				continue
			}
			seenArchives[rf.SourcePath] = true
		}

		dst := selector.Place(opts.OutputDir, rf)
		if opts.Move {
			if err := transfer.Move(rf.SourcePath, dst); err != nil {
				return err
			}
			continue
		}
		if err := transfer.Copy(rf.SourcePath, dst); err != nil {
			return err
		}
	}
	return nil
}

// romDestName names one extracted rom file for the uncompressed output
// modes: the rom's own name (its archive member name when it came from an
// archive), placed flat unless forceSubdir is set or the candidate has more
// than one rom, in which case it goes under a candidate-name subdirectory.
func romDestName(res *selector.Resolution, rf selector.ResolvedFile, forceSubdir bool) string {
	name := rf.SourceMember
	if name == "" {
		name = filepath.Base(rf.SourcePath)
	} else {
		name = filepath.Base(name)
	}
	if forceSubdir || len(res.Files) > 1 {
		return filepath.Join(res.Candidate.Name, name)
	}
	return name
}

// openResolvedFile returns a reader over rf's bytes, extracting from its
// source archive when rf.IsArchive; the caller must Close the result.
func openResolvedFile(rf selector.ResolvedFile) (io.ReadCloser, error) {
	if !rf.IsArchive {
		return os.Open(rf.SourcePath)
	}
	a, ok, err := archive.Open(rf.SourcePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("oneg1r: %s is not a recognized archive", rf.SourcePath)
	}
	r, err := a.Open(rf.SourceMember)
	if err != nil {
		a.Close()
		return nil, err
	}
	return &archiveMemberReader{ReadCloser: r, archive: a}, nil
}

// archiveMemberReader closes both the member stream and its parent archive
// handle, since archive.Open returns a handle the caller alone owns.
type archiveMemberReader struct {
	io.ReadCloser
	archive archive.Archive
}

func (r *archiveMemberReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeExtractedFile(r io.Reader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

// gameFromResolution converts a resolved candidate back into a datfile.Game
// for ModeCustomDat, so the emitted DAT only lists the games this run
// actually selected.
func gameFromResolution(res *selector.Resolution) datfile.Game {
	c := res.Candidate
	g := datfile.Game{Name: c.Name}
	if !c.IsParent {
		g.CloneOf = c.ParentName
	}
	g.Roms = make([]datfile.Rom, len(c.Roms))
	for i, rom := range c.Roms {
		g.Roms[i] = datfile.Rom{Name: rom.Name, SHA1: rom.SHA1, Size: rom.Size}
	}
	return g
}

// writeCustomDat marshals the selected games into a DAT file at dst, reusing
// the source catalog's header so the custom DAT stays attributable to it.
func writeCustomDat(dst string, header datfile.Header, games []datfile.Game) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	dat := datfile.Dat{Header: header, Games: games}
	body, err := xml.MarshalIndent(dat, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(xml.Header); err != nil {
		return err
	}
	_, err = f.Write(body)
	return err
}

func titleFilters(opts config.Options) title.Filters {
	return title.Filters{
		NoBIOS:            opts.NoBIOS,
		NoProgram:         opts.NoProgram,
		NoEnhancementChip: opts.NoEnhancementChip,
		NoUnlicensed:      opts.NoUnlicensed,
		NoPirate:          opts.NoPirate,
		NoPromo:           opts.NoPromo,
		NoBeta:            opts.NoBeta,
		NoDemo:            opts.NoDemo,
		NoSample:          opts.NoSample,
		NoProto:           opts.NoProto,
	}
}
