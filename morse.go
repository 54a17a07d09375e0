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
	log "github.com/sirupsen/logrus"
)

// MorsePatternMaxLen bounds the dot-dash pattern length.
const MorsePatternMaxLen = 15

// MorsePattern is a dot-dash sequence packed into a u16: a leading
// sentinel 1 bit followed by one bit per element, 0 for a short tap
// and 1 for a long one, most recent element in the LSB.  A single
// short tap is 0b10; "dit dah" is 0b101.
type MorsePattern uint16

// EmptyPattern is the sentinel-only pattern of length zero.
const EmptyPattern MorsePattern = 0b1

// Append returns the pattern extended by one element.
func (p MorsePattern) Append(long bool) MorsePattern {
	if p.Len() >= MorsePatternMaxLen {
		return p
	}
	p <<= 1
	if long {
		p |= 1
	}
	return p
}

// Len returns the number of elements in the pattern.
func (p MorsePattern) Len() int {
	n := -1
	for p != 0 {
		p >>= 1
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// MorseEntry is one slot of the morse table.  A plain tap-hold is the
// degenerate entry with one tap action and one hold action.
type MorseEntry struct {
	Profile        MorseProfile
	TapActions     []Action
	HoldActions    []Action
	PatternActions map[MorsePattern]Action
}

// tapHoldEntry wraps a TapHold key action as a one-deep morse entry.
func tapHoldEntry(ka KeyAction) MorseEntry {
	return MorseEntry{
		Profile:     ka.Profile,
		TapActions:  []Action{ka.Tap},
		HoldActions: []Action{ka.Hold},
	}
}

// tapAction returns the tap outcome for a completed tap count, clamped
// to the final index.
func (e *MorseEntry) tapAction(tapCount int) Action {
	if len(e.TapActions) == 0 {
		return NoAct
	}
	idx := tapCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(e.TapActions) {
		idx = len(e.TapActions) - 1
	}
	return e.TapActions[idx]
}

// holdAction returns the hold outcome when the hold starts after
// tapCount completed taps.  The bool is false when the entry has no
// hold outcome at all.
func (e *MorseEntry) holdAction(tapCount int) (Action, bool) {
	if len(e.HoldActions) == 0 {
		return NoAct, false
	}
	idx := tapCount
	if idx >= len(e.HoldActions) {
		idx = len(e.HoldActions) - 1
	}
	return e.HoldActions[idx], true
}

// maxTaps is the tap count beyond which no further outcome can differ.
func (e *MorseEntry) maxTaps() int {
	n := len(e.TapActions)
	if len(e.HoldActions) > n {
		n = len(e.HoldActions)
	}
	return n
}

// canResolveOnRelease reports whether releasing after tapCount taps
// already determines the outcome, so the tap may fire without waiting
// for the gap timeout.
func (e *MorseEntry) canResolveOnRelease(tapCount int) bool {
	if len(e.PatternActions) != 0 {
		return false
	}
	if tapCount >= e.maxTaps() {
		return true
	}
	// Early fire: identical tap/hold outcome at this count and nothing
	// but No afterwards.
	idx := tapCount - 1
	if idx < 0 || idx >= len(e.TapActions) || idx >= len(e.HoldActions) {
		return false
	}
	if e.TapActions[idx] != e.HoldActions[idx] {
		return false
	}
	for i := tapCount; i < len(e.TapActions); i++ {
		if e.TapActions[i] != NoAct {
			return false
		}
	}
	for i := tapCount; i < len(e.HoldActions); i++ {
		if e.HoldActions[i] != NoAct {
			return false
		}
	}
	return true
}

// morsePhase is the per-position state machine phase.
type morsePhase uint8

const (
	morsePressing     morsePhase = iota
	morseLongPressing            // past hold timeout with no hold outcome (pattern key)
	morseHolding                 // hold committed, key still down
	morseReleased                // key up, gap timer pending
)

// morseCommit is an action delta the state machine asks the dispatcher
// to apply.
type morseCommit struct {
	action  Action
	pressed bool
}

// morseState tracks one unresolved morse position.  It lives from the
// first press until the outcome is resolved and every committed action
// is undone.
type morseState struct {
	pos     Pos
	entry   MorseEntry
	profile MorseProfile
	phase   morsePhase

	tapCount int
	pattern  MorsePattern
	pressTS  Instant

	committed Action

	// buffer holds other positions' events back while a permissive
	// hold decision is pending; it replays on resolution.
	buffer []KeyboardEvent

	// serial distinguishes successive states at the same position so a
	// dead state's deadline can never fire into its successor; gen
	// cancels deadlines within one state's life.
	serial uint64
	gen    uint64
}

func newMorseState(pos Pos, entry MorseEntry, profile MorseProfile, ts Instant, serial uint64) *morseState {
	return &morseState{
		pos:     pos,
		entry:   entry,
		profile: profile,
		phase:   morsePressing,
		pattern: EmptyPattern,
		pressTS: ts,
		serial:  serial,
	}
}

// buffersOthers reports whether this unresolved key wants other
// positions' events held back until it resolves.  Only PermissiveHold
// does; HoldOnOtherPress resolves on the other press itself and Normal
// lets the rest of the keyboard flow.
func (m *morseState) buffersOthers() bool {
	return m.phase == morsePressing && m.profile.Mode == MorseModePermissiveHold
}

// onPress handles a press of this position (a repeat press while the
// gap timer runs).  Returns true if the press was consumed.
func (m *morseState) onPress(ts Instant) bool {
	if m.phase != morseReleased {
		return false
	}
	m.gen++ // cancel gap deadline
	m.phase = morsePressing
	m.pressTS = ts
	return true
}

// onRelease handles the release of this position.  The returned
// commits must be applied in order; done reports whether the state is
// fully resolved and can be dropped.
func (m *morseState) onRelease(ts Instant) (commits []morseCommit, done bool) {
	switch m.phase {
	case morseHolding:
		return []morseCommit{{m.committed, false}}, true
	case morseLongPressing:
		m.pattern = m.pattern.Append(true)
		m.tapCount++
		m.phase = morseReleased
		return nil, false
	case morsePressing:
		m.pattern = m.pattern.Append(false)
		m.tapCount++
		m.gen++ // cancel hold deadline
		if m.entry.canResolveOnRelease(m.tapCount) {
			a := m.entry.tapAction(m.tapCount)
			return tapFire(a), true
		}
		m.phase = morseReleased
		return nil, false
	}
	return nil, true
}

// onHoldTimeout fires when the press outlived the hold timeout.
func (m *morseState) onHoldTimeout() (commits []morseCommit, done bool) {
	if m.phase != morsePressing {
		return nil, false
	}
	if a, ok := m.entry.holdAction(m.tapCount); ok {
		m.committed = a
		m.phase = morseHolding
		return []morseCommit{{a, true}}, false
	}
	// Pattern-only key: mark the element long and wait for release.
	m.phase = morseLongPressing
	return nil, false
}

// onGapTimeout fires when no repeat press arrived in time; the
// accumulated pattern or tap count decides the outcome.
func (m *morseState) onGapTimeout() (commits []morseCommit, done bool) {
	if m.phase != morseReleased {
		return nil, false
	}
	if len(m.entry.PatternActions) != 0 {
		if a, ok := m.entry.PatternActions[m.pattern]; ok {
			return tapFire(a), true
		}
		log.Debugf("morse: pattern %#x not found at %s, falling back to tap", uint16(m.pattern), m.pos)
	}
	return tapFire(m.entry.tapAction(m.tapCount)), true
}

// forceHold commits the hold outcome early (HoldOnOtherPress trigger,
// or PermissiveHold nested-release trigger).
func (m *morseState) forceHold() (commits []morseCommit, done bool) {
	if m.phase != morsePressing {
		return nil, false
	}
	m.gen++ // cancel hold deadline
	a, ok := m.entry.holdAction(m.tapCount)
	if !ok {
		// No hold outcome to commit; treat as a long element.
		m.phase = morseLongPressing
		return nil, false
	}
	m.committed = a
	m.phase = morseHolding
	return []morseCommit{{a, true}}, false
}

// forceTap resolves the key as a tap right now (other-key press while
// released in a permissive mode, or unilateral tap).  In the pressing
// phases the key is still physically down, so the tap is committed
// like a hold and the eventual release undoes it.
func (m *morseState) forceTap() (commits []morseCommit, done bool) {
	switch m.phase {
	case morseReleased:
		m.gen++
		return tapFire(m.entry.tapAction(m.tapCount)), true
	case morsePressing, morseLongPressing:
		m.gen++
		a := m.entry.tapAction(m.tapCount + 1)
		m.committed = a
		m.phase = morseHolding // key still down; release undoes the tap
		return []morseCommit{{a, true}}, false
	}
	return nil, false
}

// tapFire is a press immediately undone: the key is already up when a
// tap resolves.
func tapFire(a Action) []morseCommit {
	if a == NoAct {
		return nil
	}
	return []morseCommit{{a, true}, {a, false}}
}
