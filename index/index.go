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

// Package index walks an input directory, computes a SHA-1 digest for every
// file (and every member of every archive it contains), and folds the
// results into a single digest-to-path map, dispatching the work across a
// pool of worker goroutines.
package index

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/glog"
	"github.com/karrick/godirwalk"
	"github.com/romtools/oneg1r/archive"
	"github.com/romtools/oneg1r/header"
)

const defaultChunkSize = 32 * 1024 * 1024

// FileData names one file discovered under the input root, along with its
// size so the driver can sort the work queue largest-first.
type FileData struct {
	Path      string
	Size      int64
	IsArchive bool
}

// Location is where a given digest was found: a plain file, or a member
// inside an archive.
type Location struct {
	Path      string // archive path, or the plain file's own path
	Member    string // empty unless this location is inside an archive
	IsArchive bool
}

// Config controls indexing behavior. A non-positive Threads or ChunkSize
// falls back to 4 workers or 32 MiB; MaxFileSize has no fallback, so when it
// is zero header rules are applied only to empty files.
type Config struct {
	Threads          int
	ChunkSize        int64
	MaxFileSize      int64
	Rules            *header.Ruleset
	ArchiveSuffixes  map[string]bool // extensions the DAT references directly, e.g. ".zip"
	Progress         ProgressTracker
}

func (c Config) threads() int {
	if c.Threads <= 0 {
		return 4
	}
	return c.Threads
}

func (c Config) chunkSize() int64 {
	if c.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSize
}

// Indexer walks a directory tree and builds a digest -> Location map.
type Indexer struct {
	cfg Config
}

// New returns an Indexer configured per cfg.
func New(cfg Config) *Indexer {
	if cfg.Progress == nil {
		cfg.Progress = NewProgress(nil)
	}
	return &Indexer{cfg: cfg}
}

// Scan walks root recursively and collects every regular file, largest
// first, ready to be dispatched to workers. It walks with godirwalk, which
// reads directory entries without an lstat of its own; each non-directory
// entry is then lstat'ed once for its size and probed for an archive format.
func Scan(root string) ([]FileData, error) {
	var files []FileData
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			info, err := os.Lstat(path)
			if err != nil {
				return err
			}
			_, isArchive := archive.Probe(path)
			files = append(files, FileData{Path: path, Size: info.Size(), IsArchive: isArchive})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("index: walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Size > files[j].Size
	})
	return files, nil
}

// Build runs the full walk-dispatch-digest-merge pipeline over root and
// returns the merged digest -> Location map.
func (ix *Indexer) Build(root string) (map[string]Location, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, err
	}

	var totalBytes int64
	for _, f := range files {
		totalBytes += f.Size
	}
	ix.cfg.Progress.SetTotalBytes(totalBytes)
	ix.cfg.Progress.SetTotalFiles(int64(len(files)))

	work := make(chan FileData)
	results := make(chan map[string]Location, ix.cfg.threads())

	for w := 0; w < ix.cfg.threads(); w++ {
		go ix.worker(work, results)
	}

	go func() {
		for _, f := range files {
			work <- f
		}
		close(work)
	}()

	merged := make(map[string]Location)
	for w := 0; w < ix.cfg.threads(); w++ {
		partial := <-results
		for digest, loc := range partial {
			mergeInto(merged, digest, loc)
		}
	}
	return merged, nil
}

// mergeInto applies the §4.4 merge policy: a non-archive location displaces
// an archive one; otherwise the first-seen location is kept.
func mergeInto(merged map[string]Location, digest string, loc Location) {
	existing, ok := merged[digest]
	if !ok {
		merged[digest] = loc
		return
	}
	if existing.IsArchive && !loc.IsArchive {
		merged[digest] = loc
	}
}

func (ix *Indexer) worker(work <-chan FileData, results chan<- map[string]Location) {
	partial := make(map[string]Location)
	for f := range work {
		ix.indexFile(f, partial)
		ix.cfg.Progress.AddBytesFromFile(f.Path, f.Size)
		ix.cfg.Progress.Finished(f.Path)
	}
	results <- partial
}

func (ix *Indexer) indexFile(f FileData, partial map[string]Location) {
	a, isArchive, err := archive.Open(f.Path)
	if err != nil {
		glog.Warningf("index: skipping %s: archive open failed: %v", f.Path, err)
		return
	}

	if isArchive {
		defer a.Close()
		for _, m := range a.Members() {
			r, err := a.Open(m.Name)
			if err != nil {
				glog.Warningf("index: skipping member %s in %s: %v", m.Name, f.Path, err)
				continue
			}
			digest, err := ix.digest(r, m.Size)
			r.Close()
			if err != nil {
				glog.Warningf("index: digesting member %s in %s: %v", m.Name, f.Path, err)
				continue
			}
			mergeInto(partial, digest, Location{Path: f.Path, Member: m.Name, IsArchive: true})
		}
	}

	if !isArchive || ix.cfg.ArchiveSuffixes[filepath.Ext(f.Path)] {
		raw, err := os.Open(f.Path)
		if err != nil {
			glog.Warningf("index: skipping %s: %v", f.Path, err)
			return
		}
		digest, err := ix.digest(raw, f.Size)
		raw.Close()
		if err != nil {
			glog.Warningf("index: digesting %s: %v", f.Path, err)
			return
		}
		mergeInto(partial, digest, Location{Path: f.Path, IsArchive: isArchive})
	}
}

// digest implements §4.4's digest protocol: header-rule transform for
// small buffers, chunked streaming SHA-1 otherwise.
func (ix *Indexer) digest(r io.Reader, size int64) (string, error) {
	if ix.cfg.Rules != nil && size <= ix.cfg.MaxFileSize {
		buf, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		if rule, ok := ix.cfg.Rules.FirstMatch(buf); ok {
			buf = rule.Apply(buf)
		}
		sum := sha1.Sum(buf)
		return hex.EncodeToString(sum[:]), nil
	}

	h := sha1.New()
	buf := make([]byte, ix.cfg.chunkSize())
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
