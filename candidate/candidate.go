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

// Package candidate drives the DAT reader through the title parser and
// region registry, expanding every game into one Candidate per parsed
// region and grouping the candidates under their parent game's name.
package candidate

import (
	"github.com/golang/glog"
	"github.com/romtools/oneg1r/datfile"
	"github.com/romtools/oneg1r/region"
	"github.com/romtools/oneg1r/title"
	"github.com/spacemonkeygo/errors"
)

// ErrorClass is the family of fatal errors this package returns.
var ErrorClass = errors.NewClass("candidate")

// MissingChecksumError is returned by Build when scanning is requested but
// a ROM entry in the DAT carries no SHA-1 digest.
var MissingChecksumError = ErrorClass.NewClass("missing_checksum")

// AmbiguousCatalogError signals that the DAT has no cloneof anywhere,
// which usually means it is a "Standard DAT" with no parent/clone
// relationships at all; the caller must obtain explicit confirmation
// before continuing.
var AmbiguousCatalogError = ErrorClass.NewClass("ambiguous_catalog")

// Rom is one ROM entry of a Candidate.
type Rom struct {
	Name string
	SHA1 string
	Size int64
}

// Candidate is one <game, region> pair.
type Candidate struct {
	Name         string
	ParentName   string
	IsParent     bool
	IsBad        bool
	IsPrerelease bool
	Region       string
	Languages    []string
	InputIndex   int
	Revision     string
	Version      string
	Sample       string
	Demo         string
	Beta         string
	Proto        string
	Roms         []Rom
}

// Group is an ordered parent-name -> candidates mapping, preserving the
// first-seen order of parent names (which follows DAT document order).
type Group struct {
	Order    []string
	ByParent map[string][]*Candidate
}

func newGroup() *Group {
	return &Group{ByParent: make(map[string][]*Candidate)}
}

func (g *Group) add(parent string, c *Candidate) {
	if _, ok := g.ByParent[parent]; !ok {
		g.Order = append(g.Order, parent)
	}
	g.ByParent[parent] = append(g.ByParent[parent], c)
}

// Options controls which category filters drop a title before it becomes a
// candidate, mirroring title.Filters one-to-one.
type Options struct {
	Filters     title.Filters
	RequireSHA1 bool // scanning against a hash index was requested

	// ConfirmAmbiguous, once true, lets Build proceed past a Standard DAT
	// (no cloneof anywhere) instead of returning AmbiguousCatalogError. A
	// caller should present that error to the user for confirmation and
	// retry with this set, rather than treating it as fatal on its own.
	ConfirmAmbiguous bool
}

// Build parses every game in dat into candidates, expanding by parsed
// region, and groups them by parent name. opts.RequireSHA1 gates the
// MissingChecksumError check: a DAT with no SHA-1 digests is only an error
// when the run intends to resolve candidates against a hash index.
//
// A DAT with no cloneof anywhere (a "Standard DAT") is not itself fatal: it
// is surfaced once as AmbiguousCatalogError unless opts.ConfirmAmbiguous is
// set, so the caller can prompt for confirmation and call Build again with
// ConfirmAmbiguous true to proceed (every game becomes its own singleton
// parent group).
func Build(dat *datfile.Dat, reg *region.Registry, opts Options) (*Group, error) {
	hasCloneOf := false
	for _, g := range dat.Games {
		if g.CloneOf != "" {
			hasCloneOf = true
			break
		}
	}
	if !hasCloneOf && len(dat.Games) > 0 && !opts.ConfirmAmbiguous {
		return nil, AmbiguousCatalogError.New("dat %q has no cloneof relationships anywhere; this looks like a Standard DAT", dat.Header.Name)
	}

	group := newGroup()

	for idx, g := range dat.Games {
		for _, rom := range g.Roms {
			if opts.RequireSHA1 && rom.SHA1 == "" {
				return nil, MissingChecksumError.New("game %q is missing a sha1 digest for rom %q", g.Name, rom.Name)
			}
		}

		releases := make([]title.Release, len(g.Releases))
		for i, r := range g.Releases {
			releases[i] = title.Release{Region: r.Region}
		}

		parsed := title.Parse(g.Name, releases, reg, opts.Filters)
		if parsed.Dropped {
			continue
		}
		if len(parsed.Regions) == 0 {
			glog.Warningf("candidate: %q has no parseable region and no release records, dropping", g.Name)
			continue
		}

		parent := g.Name
		if g.CloneOf != "" {
			parent = g.CloneOf
		}

		roms := make([]Rom, len(g.Roms))
		for i, r := range g.Roms {
			roms[i] = Rom{Name: r.Name, SHA1: r.SHA1, Size: r.Size}
		}

		for _, regionCode := range parsed.Regions {
			c := &Candidate{
				Name:         g.Name,
				ParentName:   parent,
				IsParent:     g.IsParent(),
				IsBad:        parsed.IsBad,
				IsPrerelease: parsed.IsPrerelease,
				Region:       regionCode,
				Languages:    parsed.Languages,
				InputIndex:   idx,
				Revision:     parsed.Revision,
				Version:      parsed.Version,
				Sample:       parsed.Sample,
				Demo:         parsed.Demo,
				Beta:         parsed.Beta,
				Proto:        parsed.Proto,
				Roms:         roms,
			}
			group.add(parent, c)
		}
	}

	return group, nil
}
