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

// Package region holds the process-wide region registry: the ordered
// association between a 3-letter region code, the regex that recognizes it
// inside a title's parenthesized sections, and the languages it implies.
package region

import (
	"regexp"
	"sync"

	"github.com/golang/glog"
)

// Data describes one entry of the region registry.
type Data struct {
	Code      string
	Pattern   *regexp.Regexp
	Languages []string
}

// builtinTable is the 23-entry correlation table carried over from the
// reference implementation's constants module: country-name regex, region
// code, implied languages. Order is significant (see Registry.MatchSections).
var builtinTable = []Data{
	{"ASI", regexp.MustCompile(`(?i)(Asia)`), []string{"zh"}},
	{"ARG", regexp.MustCompile(`(?i)(Argentina)`), []string{"es"}},
	{"AUS", regexp.MustCompile(`(?i)(Australia)`), []string{"en"}},
	{"BRA", regexp.MustCompile(`(?i)(Brazil)`), []string{"pt"}},
	{"CAN", regexp.MustCompile(`(?i)(Canada)`), []string{"en", "fr"}},
	{"CHN", regexp.MustCompile(`(?i)((China)|(Hong Kong))`), []string{"zh"}},
	{"DAN", regexp.MustCompile(`(?i)(Denmark)`), []string{"da"}},
	{"EUR", regexp.MustCompile(`(?i)((Europe)|(World))`), []string{"en"}},
	{"FRA", regexp.MustCompile(`(?i)(France)`), []string{"fr"}},
	{"FYN", regexp.MustCompile(`(?i)(Finland)`), []string{"fi"}},
	{"GER", regexp.MustCompile(`(?i)(Germany)`), []string{"de"}},
	{"GRE", regexp.MustCompile(`(?i)(Greece)`), []string{"el"}},
	{"ITA", regexp.MustCompile(`(?i)(Italy)`), []string{"it"}},
	{"JPN", regexp.MustCompile(`(?i)((Japan)|(World))`), []string{"ja"}},
	{"HOL", regexp.MustCompile(`(?i)(Netherlands)`), []string{"nl"}},
	{"KOR", regexp.MustCompile(`(?i)(Korea)`), []string{"ko"}},
	{"MEX", regexp.MustCompile(`(?i)(Mexico)`), []string{"es"}},
	{"NOR", regexp.MustCompile(`(?i)(Norway)`), []string{"no"}},
	{"RUS", regexp.MustCompile(`(?i)(Russia)`), []string{"ru"}},
	{"SPA", regexp.MustCompile(`(?i)(Spain)`), []string{"es"}},
	{"SWE", regexp.MustCompile(`(?i)(Sweden)`), []string{"sv"}},
	{"USA", regexp.MustCompile(`(?i)((USA)|(World))`), []string{"en"}},
	{"TAI", regexp.MustCompile(`(?i)(Taiwan)`), []string{"zh"}},
}

// Registry is the ordered, process-wide set of known regions. It is built
// once at startup and appended to as unknown codes are encountered; every
// method takes the registry's mutex, so lookups and Extend calls may come
// from several goroutines.
type Registry struct {
	mu      sync.Mutex
	entries []Data
	byCode  map[string]int
}

// NewRegistry builds a registry pre-populated with the built-in table.
func NewRegistry() *Registry {
	r := &Registry{
		byCode: make(map[string]int, len(builtinTable)),
	}
	for _, d := range builtinTable {
		r.append(d)
	}
	return r
}

func (r *Registry) append(d Data) {
	r.byCode[d.Code] = len(r.entries)
	r.entries = append(r.entries, d)
}

// Lookup returns the Data for code and whether it was already known.
func (r *Registry) Lookup(code string) (Data, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byCode[code]
	if !ok {
		return Data{}, false
	}
	return r.entries[idx], true
}

// Extend registers code with no title pattern and no implied languages if it
// isn't already known, logging a warning. It returns the (possibly
// pre-existing) Data for code.
func (r *Registry) Extend(code string) Data {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byCode[code]; ok {
		return r.entries[idx]
	}

	glog.Warningf("unknown region code %q, registering it with no title pattern", code)
	d := Data{Code: code}
	r.append(d)
	return d
}

// Entries returns a snapshot slice of the registry in insertion order. The
// returned slice must not be mutated; indexing goroutines should call this
// once, after the driver has finished any Extend calls for the current run.
func (r *Registry) Entries() []Data {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Data, len(r.entries))
	copy(out, r.entries)
	return out
}

// MatchSections returns every region code whose title pattern matches
// element, in registry order. No entry shadows another: "World" matches
// EUR's, JPN's and USA's patterns and all three codes are returned.
func (r *Registry) MatchSections(element string) []string {
	r.mu.Lock()
	entries := r.entries
	r.mu.Unlock()

	var codes []string
	for _, d := range entries {
		if d.Pattern != nil && d.Pattern.MatchString(element) {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

// IndexOf returns the position of region in selected, or -1 if absent.
func IndexOf(selected []string, region string) int {
	for i, s := range selected {
		if s == region {
			return i
		}
	}
	return -1
}
