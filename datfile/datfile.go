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

// Package datfile deserializes a Logiqx/ClrMamePro-style DAT catalog: a
// flat list of games, each carrying zero or more regional releases and one
// or more ROM entries identified by name, sha1 and size.
package datfile

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/spacemonkeygo/errors"
)

// ErrorClass is the family of errors this package returns; its members wrap
// the underlying encoding/xml failure with the DAT file path.
var ErrorClass = errors.NewClass("datfile")

// Rom is a single ROM entry of a Game.
type Rom struct {
	Name string `xml:"name,attr"`
	SHA1 string `xml:"sha1,attr"`
	Size int64  `xml:"size,attr"`
	CRC  string `xml:"crc,attr"`
	MD5  string `xml:"md5,attr"`
}

// Release is a region-tagged release of a Game.
type Release struct {
	Name   string `xml:"name,attr"`
	Region string `xml:"region,attr"`
}

// Game is one <game> element: a possibly-cloned unit of the catalog, with
// zero or more releases and one or more roms.
type Game struct {
	Name        string    `xml:"name,attr"`
	CloneOf     string    `xml:"cloneof,attr"`
	Description string    `xml:"description"`
	Releases    []Release `xml:"release"`
	Roms        []Rom     `xml:"rom"`
}

// IsParent reports whether g is not itself a clone of another game.
func (g Game) IsParent() bool {
	return g.CloneOf == ""
}

// Header is the informational <header> block of a DAT file.
type Header struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Version     string `xml:"version"`
	Author      string `xml:"author"`
}

// Dat is a fully parsed DAT catalog.
type Dat struct {
	XMLName xml.Name `xml:"datafile"`
	Header  Header   `xml:"header"`
	Games   []Game   `xml:"game"`
}

// ParseFile reads and parses the DAT catalog at path.
func ParseFile(path string) (*Dat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrorClass.Wrap(err)
	}
	defer f.Close()

	var dat Dat
	dec := xml.NewDecoder(f)
	if err := dec.Decode(&dat); err != nil {
		return nil, ErrorClass.Wrap(fmt.Errorf("parsing dat file %s: %w", path, err))
	}
	return &dat, nil
}

// ParentGroups buckets every clone under its parent's name, in first-seen
// parent order; a clone whose cloneof does not name any known parent is
// bucketed under its own name, promoting it to a (singleton) parent group
// per §4.6's "orphaned clone" edge case.
func (d *Dat) ParentGroups() ([]string, map[string][]Game) {
	byName := make(map[string]Game, len(d.Games))
	for _, g := range d.Games {
		byName[g.Name] = g
	}

	var order []string
	groups := make(map[string][]Game)

	addParent := func(name string) {
		if _, ok := groups[name]; !ok {
			order = append(order, name)
			groups[name] = nil
		}
	}

	for _, g := range d.Games {
		if g.IsParent() {
			addParent(g.Name)
		}
	}

	for _, g := range d.Games {
		if g.IsParent() {
			groups[g.Name] = append(groups[g.Name], g)
			continue
		}
		parent := g.CloneOf
		if _, ok := byName[parent]; !ok {
			parent = g.Name
		}
		addParent(parent)
		groups[parent] = append(groups[parent], g)
	}

	return order, groups
}
