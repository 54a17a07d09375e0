// Copyright 2026 The Cadence Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cadence

import (
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/transform"
)

// Macro space encoding: macros are stored back to back, each a
// sequence of operations terminated by opEnd.  Macro n starts after
// the nth terminator.
const (
	opEnd     byte = 0x00
	opTap     byte = 0x01 // code
	opPress   byte = 0x02 // code
	opRelease byte = 0x03 // code
	opDelay   byte = 0x04 // ms lo, ms hi
	opText    byte = 0x05 // len, bytes
)

// MacroOp is one decoded macro operation, used to build macro spaces.
type MacroOp struct {
	Op   byte
	Code uint16
	Ms   uint16
	Text []byte
}

// MacroTap, MacroPress, MacroRelease, MacroDelay and MacroText build
// the operation variants.
func MacroTap(code uint16) MacroOp     { return MacroOp{Op: opTap, Code: code} }
func MacroPress(code uint16) MacroOp   { return MacroOp{Op: opPress, Code: code} }
func MacroRelease(code uint16) MacroOp { return MacroOp{Op: opRelease, Code: code} }
func MacroDelay(ms uint16) MacroOp     { return MacroOp{Op: opDelay, Ms: ms} }
func MacroText(s string) MacroOp       { return MacroOp{Op: opText, Text: []byte(s)} }

// EncodeMacros packs macro operation lists into a macro space.
func EncodeMacros(macros [][]MacroOp) []byte {
	var space []byte
	for _, ops := range macros {
		for _, op := range ops {
			switch op.Op {
			case opTap, opPress, opRelease:
				space = append(space, op.Op, byte(op.Code))
			case opDelay:
				space = append(space, op.Op, byte(op.Ms), byte(op.Ms>>8))
			case opText:
				text := op.Text
				if len(text) > 255 {
					text = text[:255]
				}
				space = append(space, op.Op, byte(len(text)))
				space = append(space, text...)
			}
		}
		space = append(space, opEnd)
	}
	return space
}

// macroStart returns the offset of macro idx in the space, or -1.
func macroStart(space []byte, idx uint8) int {
	off := 0
	for n := uint8(0); n < idx; n++ {
		for off < len(space) && space[off] != opEnd {
			off += macroOpLen(space, off)
		}
		if off >= len(space) {
			return -1
		}
		off++ // skip the terminator
	}
	if off >= len(space) {
		return -1
	}
	return off
}

func macroOpLen(space []byte, off int) int {
	switch space[off] {
	case opTap, opPress, opRelease:
		return 2
	case opDelay:
		return 3
	case opText:
		if off+1 >= len(space) {
			return len(space) - off
		}
		return 2 + int(space[off+1])
	}
	return 1
}

// macroRunner executes one macro cooperatively: the dispatcher steps
// it between events, and Delay operations suspend it on a deadline.
type macroRunner struct {
	cfg     *MacroConfig
	hid     *hidAggregator
	charset string

	offset int
	active bool
	gen    uint64
}

func newMacroRunner(cfg *MacroConfig, hid *hidAggregator) *macroRunner {
	cs := cfg.Charset
	if cs == "" {
		cs = "UTF-8"
	}
	return &macroRunner{cfg: cfg, hid: hid, charset: cs}
}

// start begins macro idx.  A macro triggered while another is running
// replaces it; the original finishes its current operation only.
func (mr *macroRunner) start(idx uint8) bool {
	off := macroStart(mr.cfg.Space, idx)
	if off < 0 {
		log.Warnf("macro: no sequence at index %d: %v", idx, ErrMacroNotFound)
		return false
	}
	mr.offset = off
	mr.active = true
	mr.gen++
	return true
}

// step executes operations until the macro ends or a Delay suspends
// it.  delayMs is non-zero when a deadline must be armed.
func (mr *macroRunner) step() (delayMs uint16, done bool) {
	space := mr.cfg.Space
	for mr.active {
		if mr.offset >= len(space) || space[mr.offset] == opEnd {
			mr.active = false
			return 0, true
		}
		op := space[mr.offset]
		n := macroOpLen(space, mr.offset)
		if mr.offset+n > len(space) {
			log.Warnf("macro: truncated operation %#02x at %d", op, mr.offset)
			mr.active = false
			return 0, true
		}
		switch op {
		case opTap:
			code := uint16(space[mr.offset+1])
			mr.tap(code, false)
		case opPress:
			mr.hid.apply(KC(uint16(space[mr.offset+1])), true)
			mr.hid.flushKeyboard()
		case opRelease:
			mr.hid.apply(KC(uint16(space[mr.offset+1])), false)
			mr.hid.flushKeyboard()
		case opText:
			mr.typeText(space[mr.offset+2 : mr.offset+n])
		case opDelay:
			ms := uint16(space[mr.offset+1]) | uint16(space[mr.offset+2])<<8
			mr.offset += n
			return ms, false
		}
		mr.offset += n
	}
	return 0, true
}

func (mr *macroRunner) tap(code uint16, shift bool) {
	if shift {
		mr.hid.apply(MD(ModLShift), true)
	}
	mr.hid.apply(KC(code), true)
	mr.hid.flushKeyboard()
	mr.hid.apply(KC(code), false)
	if shift {
		mr.hid.apply(MD(ModLShift), false)
	}
	mr.hid.flushKeyboard()
}

// typeText decodes the stored bytes in the configured charset and
// synthesizes a tap sequence with the US-layout shift rules.
func (mr *macroRunner) typeText(raw []byte) {
	text := raw
	if mr.charset != "UTF-8" && mr.charset != "US-ASCII" {
		if enc := GetEncoding(mr.charset); enc != nil {
			if dec, _, err := transform.Bytes(enc.NewDecoder(), raw); err == nil {
				text = dec
			}
		}
	}
	for len(text) > 0 {
		r, sz := utf8.DecodeRune(text)
		text = text[sz:]
		if r >= 0x80 {
			log.Debugf("macro: no usage for rune %q, skipping", r)
			continue
		}
		k, ok := asciiToKey(byte(r))
		if !ok {
			continue
		}
		mr.tap(k.code, k.shift)
	}
}
