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

package index

import (
	"sync"

	"github.com/dustin/go-humanize"
)

// ProgressTracker receives progress calls from indexing workers.
// Implementations must be safe for concurrent use: every worker goroutine
// calls the tracker directly, so calls from different workers may overlap,
// and each worker waits for its own call to return before going on.
type ProgressTracker interface {
	SetTotalBytes(n int64)
	SetTotalFiles(n int64)
	AddBytesFromFile(path string, n int64)
	Finished(path string)
}

// Progress is the default mutex-guarded ProgressTracker, printing a
// humanized one-line summary through a caller-supplied sink each time a file
// is Finished.
type Progress struct {
	mu sync.Mutex

	totalBytes, totalFiles int64
	doneBytes, doneFiles   int64

	sink func(string)
}

// NewProgress returns a Progress that reports through sink (e.g.
// glog.Infof, or a line printed to stderr). A nil sink discards updates.
func NewProgress(sink func(string)) *Progress {
	if sink == nil {
		sink = func(string) {}
	}
	return &Progress{sink: sink}
}

func (p *Progress) SetTotalBytes(n int64) {
	p.mu.Lock()
	p.totalBytes = n
	p.mu.Unlock()
}

func (p *Progress) SetTotalFiles(n int64) {
	p.mu.Lock()
	p.totalFiles = n
	p.mu.Unlock()
}

func (p *Progress) AddBytesFromFile(path string, n int64) {
	p.mu.Lock()
	p.doneBytes += n
	p.mu.Unlock()
}

func (p *Progress) Finished(path string) {
	p.mu.Lock()
	p.doneFiles++
	done, totalFiles, doneBytes, totalBytes := p.doneFiles, p.totalFiles, p.doneBytes, p.totalBytes
	p.mu.Unlock()

	p.sink(humanize.Comma(done) + " of " + humanize.Comma(totalFiles) + " files indexed (" +
		humanize.Bytes(uint64(doneBytes)) + " of " + humanize.Bytes(uint64(totalBytes)) + ")")
}

// Snapshot returns the current counters, useful for tests and for a final
// run summary.
func (p *Progress) Snapshot() (doneFiles, totalFiles int64, doneBytes, totalBytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneFiles, p.totalFiles, p.doneBytes, p.totalBytes
}
