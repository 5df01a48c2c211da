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

// Package score computes a per-candidate Score and defines the sixteen-key
// total ordering that picks the single best candidate in a parent group.
package score

import (
	"regexp"
	"strings"

	"github.com/romtools/oneg1r/candidate"
)

// UnselectedRegion is the sentinel region score for a candidate whose
// region was not in the user's selected list.
const UnselectedRegion = 10000

// Score is the numerical projection of one Candidate's region, language and
// padded version-like fields, ready for lexicographic comparison.
type Score struct {
	Region    int
	Languages int
	Revision  []int
	Version   []int
	Sample    []int
	Demo      []int
	Beta      []int
	Proto     []int
}

// Options carries every user-selected preference §4.5's Score computation
// depends on.
type Options struct {
	Regions         []string
	Languages       []string
	LanguageWeight  int
	EarlyRevisions  bool
	EarlyVersions   bool
}

func (o Options) languageWeight() int {
	if o.LanguageWeight <= 0 {
		return 3
	}
	return o.LanguageWeight
}

func indexOf(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

func toIntList(s string, multiplier int) []int {
	out := make([]int, len(s))
	for i, r := range s {
		out[i] = multiplier * int(r)
	}
	return out
}

// PadGroup left-zero-pads each dotted field position-wise across every
// candidate in a parent group, so lexicographic string comparison equals
// numeric comparison component-wise. It mutates the candidates in place.
func PadGroup(cands []*candidate.Candidate) {
	padField(cands,
		func(c *candidate.Candidate) string { return c.Revision },
		func(c *candidate.Candidate, v string) { c.Revision = v })
	padField(cands,
		func(c *candidate.Candidate) string { return c.Version },
		func(c *candidate.Candidate, v string) { c.Version = v })
	padField(cands,
		func(c *candidate.Candidate) string { return c.Sample },
		func(c *candidate.Candidate, v string) { c.Sample = v })
	padField(cands,
		func(c *candidate.Candidate) string { return c.Demo },
		func(c *candidate.Candidate, v string) { c.Demo = v })
	padField(cands,
		func(c *candidate.Candidate) string { return c.Beta },
		func(c *candidate.Candidate, v string) { c.Beta = v })
	padField(cands,
		func(c *candidate.Candidate) string { return c.Proto },
		func(c *candidate.Candidate, v string) { c.Proto = v })
}

func padField(cands []*candidate.Candidate, get func(*candidate.Candidate) string, set func(*candidate.Candidate, string)) {
	if len(cands) == 0 {
		return
	}

	parts := make([][]string, len(cands))
	maxParts := 0
	for i, c := range cands {
		parts[i] = strings.Split(get(c), ".")
		if len(parts[i]) > maxParts {
			maxParts = len(parts[i])
		}
	}

	maxLengths := make([]int, maxParts)
	for _, p := range parts {
		for i, part := range p {
			if len(part) > maxLengths[i] {
				maxLengths[i] = len(part)
			}
		}
	}

	for i, p := range parts {
		for j, part := range p {
			if pad := maxLengths[j] - len(part); pad > 0 {
				p[j] = strings.Repeat("0", pad) + part
			}
		}
		set(cands[i], strings.Join(p, "."))
	}
}

// Compute assigns a Score to c given the run's Options. c's version-like
// fields must already be padded (see PadGroup).
func Compute(c *candidate.Candidate, opts Options) Score {
	region := indexOf(opts.Regions, c.Region)
	if region < 0 {
		region = UnselectedRegion
	}

	languages := 0
	for _, lang := range c.Languages {
		rank := indexOf(opts.Languages, lang)
		languages += (rank + 1) * -opts.languageWeight()
	}

	revMult, verMult := -1, -1
	if opts.EarlyRevisions {
		revMult = 1
	}
	if opts.EarlyVersions {
		verMult = 1
	}

	return Score{
		Region:    region,
		Languages: languages,
		Revision:  toIntList(c.Revision, revMult),
		Version:   toIntList(c.Version, verMult),
		Sample:    toIntList(c.Sample, -1),
		Demo:      toIntList(c.Demo, -1),
		Beta:      toIntList(c.Beta, -1),
		Proto:     toIntList(c.Proto, -1),
	}
}

// Ranked pairs a Candidate with its computed Score for ordering.
type Ranked struct {
	Candidate *candidate.Candidate
	Score     Score
}

// KeyGenerator builds the 16-key ordering tuple Less compares, per §4.5.
type KeyGenerator struct {
	PrioritizeLanguages bool
	PreferPrereleases   bool
	PreferParents       bool
	InputOrder          bool
	Prefer              []*regexp.Regexp
	Avoid               []*regexp.Regexp
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func compareIntLists(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func boolLess(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func intLess(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less implements the §4.5 ordering key: it returns true when r should sort
// before other, i.e. r is the better candidate.
func (kg KeyGenerator) Less(r, other Ranked) bool {
	rc, oc := r.Candidate, other.Candidate

	steps := []int{
		boolLess(rc.IsBad, oc.IsBad),
		boolLess(kg.PreferPrereleases != rc.IsPrerelease, kg.PreferPrereleases != oc.IsPrerelease),
		boolLess(matchesAny(kg.Avoid, rc.Name), matchesAny(kg.Avoid, oc.Name)),
	}

	primary, secondary := r.Score.Languages, r.Score.Region
	oPrimary, oSecondary := other.Score.Languages, other.Score.Region
	if !kg.PrioritizeLanguages {
		primary, secondary = r.Score.Region, r.Score.Languages
		oPrimary, oSecondary = other.Score.Region, other.Score.Languages
	}
	steps = append(steps, intLess(primary, oPrimary), intLess(secondary, oSecondary))

	steps = append(steps,
		boolLess(kg.PreferParents && !rc.IsParent, kg.PreferParents && !oc.IsParent),
	)

	inputIndexR, inputIndexO := 0, 0
	if kg.InputOrder {
		inputIndexR, inputIndexO = rc.InputIndex, oc.InputIndex
	}
	steps = append(steps, intLess(inputIndexR, inputIndexO))

	steps = append(steps,
		boolLess(!matchesAny(kg.Prefer, rc.Name), !matchesAny(kg.Prefer, oc.Name)),
		compareIntLists(r.Score.Revision, other.Score.Revision),
		compareIntLists(r.Score.Version, other.Score.Version),
		compareIntLists(r.Score.Sample, other.Score.Sample),
		compareIntLists(r.Score.Demo, other.Score.Demo),
		compareIntLists(r.Score.Beta, other.Score.Beta),
		compareIntLists(r.Score.Proto, other.Score.Proto),
		intLess(-len(rc.Languages), -len(oc.Languages)),
		boolLess(!rc.IsParent, !oc.IsParent),
	)

	for _, s := range steps {
		if s != 0 {
			return s < 0
		}
	}
	return false
}
