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

// Package header parses a ClrMamePro-style XML "detector" file into a
// sequence of Rules and applies the first matching rule's byte
// transformation to a ROM payload before hashing.
package header

import (
	"encoding/xml"
	"fmt"
	"math/bits"
	"os"
)

// Operation identifies one of the four byte transformations a Rule can
// apply.
type Operation int

const (
	OpNone Operation = iota
	OpBitswap
	OpByteswap
	OpWordswap
)

func parseOperation(s string) (Operation, error) {
	switch s {
	case "", "none":
		return OpNone, nil
	case "bitswap":
		return OpBitswap, nil
	case "byteswap":
		return OpByteswap, nil
	case "wordswap":
		return OpWordswap, nil
	default:
		return OpNone, fmt.Errorf("header: unknown operation %q", s)
	}
}

// Test is satisfied or not by a candidate buffer; all of a Rule's tests must
// pass for the rule to apply.
type Test interface {
	apply(buf []byte) bool
}

// dataTest compares len(value)/2 bytes at offset, interpreted big-endian,
// against value.
type dataTest struct {
	offset int64
	value  int64
	end    int64
	result bool
}

func (t dataTest) apply(buf []byte) bool {
	if t.end > int64(len(buf)) || t.offset < 0 {
		return false == t.result
	}
	found := beInt(buf[t.offset:t.end])
	return (found == t.value) == t.result
}

// booleanOp is one of and/or/xor applied between a mask and a big-endian
// integer read from the buffer.
type booleanOp int

const (
	opAnd booleanOp = iota
	opOr
	opXor
)

type booleanTest struct {
	op     booleanOp
	mask   int64
	value  int64
	offset int64
	end    int64
	result bool
}

func (t booleanTest) apply(buf []byte) bool {
	if t.end > int64(len(buf)) || t.offset < 0 {
		return false == t.result
	}
	found := beInt(buf[t.offset:t.end])
	var computed int64
	switch t.op {
	case opAnd:
		computed = t.mask & found
	case opOr:
		computed = t.mask | found
	case opXor:
		computed = t.mask ^ found
	}
	return (computed == t.value) == t.result
}

// fileSizeOp compares the whole buffer's length against a reference size.
type fileSizeOp int

const (
	sizeEqual fileSizeOp = iota
	sizeLess
	sizeGreater
	sizePowerOfTwo
)

type fileTest struct {
	op     fileSizeOp
	size   int64
	result bool
}

func (t fileTest) apply(buf []byte) bool {
	n := int64(len(buf))
	var ok bool
	switch t.op {
	case sizeEqual:
		ok = n == t.size
	case sizeLess:
		ok = n < t.size
	case sizeGreater:
		ok = n > t.size
	case sizePowerOfTwo:
		ok = n > 0 && bits.OnesCount64(uint64(n)) == 1
	}
	return ok == t.result
}

// Rule is one <rule> element: a byte-range operation gated by zero or more
// tests.
type Rule struct {
	startOffset int64
	endOffset   int64 // 0 means EOF
	operation   Operation
	tests       []Test
}

// Matches reports whether every one of the rule's tests passes against buf.
// A rule with no tests always matches.
func (r Rule) Matches(buf []byte) bool {
	for _, t := range r.tests {
		if !t.apply(buf) {
			return false
		}
	}
	return true
}

// Apply slices buf to the rule's range and transforms it per the rule's
// operation. The returned slice may alias buf's backing array for OpNone.
func (r Rule) Apply(buf []byte) []byte {
	sliced := r.slice(buf)
	switch r.operation {
	case OpBitswap:
		return reverseBytes(sliced)
	case OpByteswap:
		return invertChunks(sliced, 2)
	case OpWordswap:
		return invertChunks(sliced, 4)
	default:
		return sliced
	}
}

func (r Rule) slice(buf []byte) []byte {
	start := r.startOffset
	if start > int64(len(buf)) {
		start = int64(len(buf))
	}
	if r.endOffset == 0 {
		return buf[start:]
	}
	end := r.endOffset
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}
	if end < start {
		end = start
	}
	return buf[start:end]
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// invertChunks reverses the order of chunkSize-byte groups counting from the
// end of b backwards; any partial leading chunk is preserved unchanged at
// the start (the conservative reading of the ambiguous upstream behavior,
// per the open question in the spec).
func invertChunks(b []byte, chunkSize int) []byte {
	out := make([]byte, 0, len(b))
	i := len(b)
	for i-chunkSize >= 0 {
		out = append(out, b[i-chunkSize:i]...)
		i -= chunkSize
	}
	head := make([]byte, i)
	copy(head, b[:i])
	return append(head, out...)
}

func beInt(b []byte) int64 {
	var v int64
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	return v
}

// xmlDetector mirrors the detector XML schema from §6: a sequence of rules,
// each with a range, an operation, and zero or more guard tests.
type xmlDetector struct {
	Rules []xmlRule `xml:"rule"`
}

type xmlRule struct {
	StartOffset string     `xml:"start_offset,attr"`
	EndOffset   string     `xml:"end_offset,attr"`
	Operation   string     `xml:"operation,attr"`
	Data        []xmlData  `xml:"data"`
	And         []xmlBool  `xml:"and"`
	Or          []xmlBool  `xml:"or"`
	Xor         []xmlBool  `xml:"xor"`
	File        []xmlFile  `xml:"file"`
}

type xmlData struct {
	Value  string `xml:"value,attr"`
	Offset string `xml:"offset,attr"`
	Rules  string `xml:"rules,attr"`
	Result string `xml:"result,attr"`
}

type xmlBool struct {
	Mask   string `xml:"mask,attr"`
	Value  string `xml:"value,attr"`
	Offset string `xml:"offset,attr"`
	Rules  string `xml:"rules,attr"`
	Result string `xml:"result,attr"`
}

type xmlFile struct {
	Size     string `xml:"size,attr"`
	Rules    string `xml:"rules,attr"`
	Result   string `xml:"result,attr"`
	Operator string `xml:"operator,attr"`
}

func parseHex(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	var v int64
	_, err := fmt.Sscanf(s, "%x", &v)
	if err != nil {
		return 0, fmt.Errorf("header: invalid hex value %q: %w", s, err)
	}
	return v, nil
}

// parseRuleResult reads a test's expected outcome from its "result" (or
// "rules") attribute; either one set to "false" inverts the test.
func parseRuleResult(vals ...string) bool {
	for _, s := range vals {
		if s == "false" {
			return false
		}
	}
	return true
}

func parseData(x xmlData) (dataTest, error) {
	offset, err := parseHex(x.Offset, 0)
	if err != nil {
		return dataTest{}, err
	}
	if len(x.Value)%2 != 0 {
		return dataTest{}, fmt.Errorf("header: data value %q has odd length", x.Value)
	}
	value, err := parseHex(x.Value, 0)
	if err != nil {
		return dataTest{}, err
	}
	return dataTest{
		offset: offset,
		value:  value,
		end:    offset + int64(len(x.Value)/2),
		result: parseRuleResult(x.Rules, x.Result),
	}, nil
}

func parseBool(op booleanOp, x xmlBool) (booleanTest, error) {
	offset, err := parseHex(x.Offset, 0)
	if err != nil {
		return booleanTest{}, err
	}
	if len(x.Mask) != len(x.Value) || len(x.Mask)%2 != 0 {
		return booleanTest{}, fmt.Errorf("header: mask %q and value %q must have the same even length", x.Mask, x.Value)
	}
	mask, err := parseHex(x.Mask, 0)
	if err != nil {
		return booleanTest{}, err
	}
	value, err := parseHex(x.Value, 0)
	if err != nil {
		return booleanTest{}, err
	}
	return booleanTest{
		op:     op,
		mask:   mask,
		value:  value,
		offset: offset,
		end:    offset + int64(len(x.Mask)/2),
		result: parseRuleResult(x.Rules, x.Result),
	}, nil
}

func parseFile(x xmlFile) (fileTest, error) {
	result := parseRuleResult(x.Rules, x.Result)
	if x.Size == "PO2" {
		return fileTest{op: sizePowerOfTwo, result: result}, nil
	}
	size, err := parseHex(x.Size, 0)
	if err != nil {
		return fileTest{}, err
	}
	switch x.Operator {
	case "", "equal":
		return fileTest{op: sizeEqual, size: size, result: result}, nil
	case "less":
		return fileTest{op: sizeLess, size: size, result: result}, nil
	case "greater":
		return fileTest{op: sizeGreater, size: size, result: result}, nil
	default:
		return fileTest{}, fmt.Errorf("header: unknown file test operator %q", x.Operator)
	}
}

func parseRule(x xmlRule) (Rule, error) {
	start, err := parseHex(x.StartOffset, 0)
	if err != nil {
		return Rule{}, err
	}
	var end int64
	if x.EndOffset != "" && x.EndOffset != "EOF" {
		end, err = parseHex(x.EndOffset, 0)
		if err != nil {
			return Rule{}, err
		}
	}
	op, err := parseOperation(x.Operation)
	if err != nil {
		return Rule{}, err
	}

	var tests []Test
	for _, d := range x.Data {
		t, err := parseData(d)
		if err != nil {
			return Rule{}, err
		}
		tests = append(tests, t)
	}
	for _, b := range x.And {
		t, err := parseBool(opAnd, b)
		if err != nil {
			return Rule{}, err
		}
		tests = append(tests, t)
	}
	for _, b := range x.Or {
		t, err := parseBool(opOr, b)
		if err != nil {
			return Rule{}, err
		}
		tests = append(tests, t)
	}
	for _, b := range x.Xor {
		t, err := parseBool(opXor, b)
		if err != nil {
			return Rule{}, err
		}
		tests = append(tests, t)
	}
	for _, f := range x.File {
		t, err := parseFile(f)
		if err != nil {
			return Rule{}, err
		}
		tests = append(tests, t)
	}

	return Rule{
		startOffset: start,
		endOffset:   end,
		operation:   op,
		tests:       tests,
	}, nil
}

// Ruleset is the parsed contents of one detector file, read-only once
// loaded and shared across indexing goroutines.
type Ruleset struct {
	Rules []Rule
}

// ParseFile parses a detector XML file at path into a Ruleset.
func ParseFile(path string) (*Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses detector XML from r into a Ruleset.
func Parse(r interface{ Read([]byte) (int, error) }) (*Ruleset, error) {
	var det xmlDetector
	dec := xml.NewDecoder(readerOf(r))
	if err := dec.Decode(&det); err != nil {
		return nil, fmt.Errorf("header: parsing detector xml: %w", err)
	}

	rs := &Ruleset{}
	for _, xr := range det.Rules {
		rule, err := parseRule(xr)
		if err != nil {
			return nil, err
		}
		rs.Rules = append(rs.Rules, rule)
	}
	return rs, nil
}

// FirstMatch returns the first rule (in document order) whose tests all
// pass against buf, and true; or the zero Rule and false if none match.
func (rs *Ruleset) FirstMatch(buf []byte) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.Matches(buf) {
			return r, true
		}
	}
	return Rule{}, false
}

// readerOf adapts any Read-only stream to io.Reader for xml.NewDecoder.
func readerOf(r interface{ Read([]byte) (int, error) }) ioReaderAdapter {
	return ioReaderAdapter{r}
}

type ioReaderAdapter struct {
	r interface{ Read([]byte) (int, error) }
}

func (a ioReaderAdapter) Read(p []byte) (int, error) {
	return a.r.Read(p)
}
