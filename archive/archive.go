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

// Package archive provides a uniform, read-only view over the archive
// formats a ROM set may be packaged in: zip, tar, rar and 7z. Callers probe
// a path's format once, then enumerate and open its non-directory members
// without caring which concrete format backs the archive.
package archive

import (
	"fmt"
	"io"
)

// Type identifies a concrete archive format.
type Type int

const (
	TypeZip Type = iota
	TypeTar
	TypeRar
	TypeSevenZip
)

func (t Type) String() string {
	switch t {
	case TypeZip:
		return "zip"
	case TypeTar:
		return "tar"
	case TypeRar:
		return "rar"
	case TypeSevenZip:
		return "7z"
	default:
		return "unknown"
	}
}

// Member is one non-directory entry of an open Archive.
type Member struct {
	Name string
	Size int64
}

// Archive is a uniform read-only handle over an archive's members. Archive
// implementations are not safe for concurrent use; index workers each open
// their own handle for the same path if more than one worker must read it.
type Archive interface {
	// Members lists every non-directory entry.
	Members() []Member

	// Open returns a stream over the decompressed payload of the named
	// member. The caller must close the returned reader.
	Open(name string) (io.ReadCloser, error)

	// Close releases any resources held by the archive.
	Close() error
}

// opener probes path and, if it recognizes the format, opens it.
type opener func(path string) (Archive, bool, error)

// openers is consulted in order; the first opener that recognizes path
// wins. Order matters only in the degenerate case of a malformed file that
// could be sniffed as more than one format, which does not arise for any of
// the four formats here since each has a distinct, checked magic/structure.
var openers = []opener{
	openZip,
	openTar,
	openRar,
	openSevenZip,
}

// Probe reports whether path is a recognized archive. It opens path through
// Open and closes it again, so it costs as much as a full Open: the tar and
// rar openers read every member's payload into memory.
func Probe(path string) (Type, bool) {
	a, ok, err := Open(path)
	if err != nil || !ok {
		return 0, false
	}
	t := a.(interface{ archiveType() Type }).archiveType()
	a.Close()
	return t, true
}

// Open tries every registered format in turn and returns the first one that
// recognizes path. ok is false (with a nil error) when no format recognizes
// the file, which is the ordinary "this is a plain file" case, not a
// failure; a non-nil error indicates the file looked like a given format
// but could not actually be parsed.
func Open(path string) (Archive, bool, error) {
	for _, open := range openers {
		a, ok, err := open(path)
		if err != nil {
			return nil, true, fmt.Errorf("archive: opening %s: %w", path, err)
		}
		if ok {
			return a, true, nil
		}
	}
	return nil, false, nil
}
