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

// Package title extracts structured attributes (region, language, revision,
// version, prerelease markers, category flags) from free-form game titles.
package title

import (
	"regexp"
	"strings"

	"github.com/golang/glog"
	"github.com/romtools/oneg1r/region"
)

// absentMarker is the sentinel used for sample/demo/beta/proto when the
// corresponding marker is not present in the title, so that absence sorts
// after any present value under ascending string comparison.
const absentMarker = "Z"

var (
	sectionsRegex        = regexp.MustCompile(`\(([^()]+)\)`)
	biosRegex            = regexp.MustCompile(`(?i)\[BIOS\]`)
	programRegex         = regexp.MustCompile(`(?i)\((?:Test\s*)?Program\)`)
	enhancementChipRegex = regexp.MustCompile(`(?i)\(Enhancement\s*Chip\)`)
	unlRegex             = regexp.MustCompile(`(?i)\(Unl\)`)
	pirateRegex          = regexp.MustCompile(`(?i)\(Pirate\)`)
	promoRegex           = regexp.MustCompile(`(?i)\(Promo\)`)
	betaRegex            = regexp.MustCompile(`(?i)\(Beta(?:\s*([a-z0-9.]+))?\)`)
	protoRegex           = regexp.MustCompile(`(?i)\(Proto(?:\s*([a-z0-9.]+))?\)`)
	sampleRegex          = regexp.MustCompile(`(?i)\(Sample(?:\s*([a-z0-9.]+))?\)`)
	demoRegex            = regexp.MustCompile(`(?i)\(Demo(?:\s*([a-z0-9.]+))?\)`)
	revRegex             = regexp.MustCompile(`(?i)\(Rev\s*([a-z0-9.]+)\)`)
	versionRegex         = regexp.MustCompile(`(?i)\(v\s*([a-z0-9.]+)\)`)
	languagesRegex       = regexp.MustCompile(`(?i)\(([a-z]{2}(?:[,+][a-z]{2})*)\)`)
	badRegex             = regexp.MustCompile(`(?i)\[b\]`)
)

// Release is the subset of a DAT <release> element the title parser needs.
type Release struct {
	Region string
}

// Filters controls which category flags drop a candidate (§4.1).
type Filters struct {
	NoBIOS             bool
	NoProgram          bool
	NoEnhancementChip  bool
	NoUnlicensed       bool
	NoPirate           bool
	NoPromo            bool
	NoBeta             bool
	NoDemo             bool
	NoSample           bool
	NoProto            bool
}

// Parsed holds every attribute extracted from a title plus its release
// records, before region expansion splits it into one Candidate per region.
type Parsed struct {
	Regions      []string
	Languages    []string
	Revision     string
	Version      string
	Sample       string
	Demo         string
	Beta         string
	Proto        string
	IsPrerelease bool
	IsBad        bool
	Dropped      bool // true if a filter excluded this title
}

func captureOrDefault(re *regexp.Regexp, name string, def string) string {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return def
	}
	return m[1]
}

// parseSectionRegions walks every top-level parenthesized section of name,
// splits it on commas, and matches each trimmed element against the
// registry's title patterns in registry order.
func parseSectionRegions(name string, reg *region.Registry) []string {
	var out []string
	for _, m := range sectionsRegex.FindAllStringSubmatch(name, -1) {
		elements := strings.Split(m[1], ",")
		for _, e := range elements {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			out = append(out, reg.MatchSections(e)...)
		}
	}
	return out
}

func parseLanguages(name string) []string {
	m := languagesRegex.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	fields := strings.FieldsFunc(m[1], func(r rune) bool {
		return r == ',' || r == '+'
	})
	var langs []string
	for _, f := range fields {
		langs = append(langs, strings.ToLower(f))
	}
	return langs
}

func appendMissing(existing []string, add ...string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	for _, a := range add {
		if !seen[a] {
			existing = append(existing, a)
			seen[a] = true
		}
	}
	return existing
}

// Parse extracts every title attribute from name and merges in the release
// records' regions. It never fails: an unknown release region is registered
// in reg as a pattern-less entry and a warning is logged (§4.1 "Error
// behavior").
func Parse(name string, releases []Release, reg *region.Registry, filters Filters) Parsed {
	p := Parsed{
		Revision: captureOrDefault(revRegex, name, "0"),
		Version:  captureOrDefault(versionRegex, name, "0"),
		Sample:   captureOrDefault(sampleRegex, name, absentMarker),
		Demo:     captureOrDefault(demoRegex, name, absentMarker),
		Beta:     captureOrDefault(betaRegex, name, absentMarker),
		Proto:    captureOrDefault(protoRegex, name, absentMarker),
		IsBad:    badRegex.MatchString(name),
	}
	p.IsPrerelease = p.Sample != absentMarker || p.Demo != absentMarker ||
		p.Beta != absentMarker || p.Proto != absentMarker

	if filters.NoBIOS && biosRegex.MatchString(name) {
		p.Dropped = true
	}
	if filters.NoProgram && programRegex.MatchString(name) {
		p.Dropped = true
	}
	if filters.NoEnhancementChip && enhancementChipRegex.MatchString(name) {
		p.Dropped = true
	}
	if filters.NoUnlicensed && unlRegex.MatchString(name) {
		p.Dropped = true
	}
	if filters.NoPirate && pirateRegex.MatchString(name) {
		p.Dropped = true
	}
	if filters.NoPromo && promoRegex.MatchString(name) {
		p.Dropped = true
	}
	if filters.NoBeta && p.Beta != absentMarker {
		p.Dropped = true
	}
	if filters.NoDemo && p.Demo != absentMarker {
		p.Dropped = true
	}
	if filters.NoSample && p.Sample != absentMarker {
		p.Dropped = true
	}
	if filters.NoProto && p.Proto != absentMarker {
		p.Dropped = true
	}

	p.Regions = parseSectionRegions(name, reg)

	for _, rel := range releases {
		if region.IndexOf(p.Regions, rel.Region) >= 0 {
			continue
		}
		d, known := reg.Lookup(rel.Region)
		if !known {
			d = reg.Extend(rel.Region)
			glog.Warningf("release region %q not found in registry for title %q, registered with no pattern", rel.Region, name)
		}
		p.Regions = append(p.Regions, d.Code)
	}

	p.Languages = parseLanguages(name)
	if p.Languages == nil {
		for _, code := range p.Regions {
			if d, ok := reg.Lookup(code); ok {
				p.Languages = appendMissing(p.Languages, d.Languages...)
			}
		}
	}

	return p
}
