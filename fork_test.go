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

import "testing"

// forkSnapshot maps Dot to "." normally but to ";" (Semicolon) while
// shift is held, the classic shift-override fork.
func forkSnapshot() *Snapshot {
	snap := testSnapshot(MorseModeNormal)
	snap.Layers[0][0][colA] = Single(KC(KeyDot))
	snap.Layers[0][0][colC] = Single(MD(ModLShift))
	snap.Behavior.Fork.Forks = []Fork{{
		Trigger:       Single(KC(KeyDot)),
		Negative:      KC(KeyDot),
		Positive:      KC(KeySemicolon),
		MatchAny:      StateBits{Modifiers: ModLShift | ModRShift},
		KeptModifiers: 0,
	}}
	return snap
}

func TestForkNegative(t *testing.T) {
	sim := newTestSim(t, forkSnapshot())
	runSteps(sim, []step{
		{colA, true, 0},
		{colA, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyDot),
		kbd(0),
	})
}

func TestForkPositiveSuppressesModifier(t *testing.T) {
	sim := newTestSim(t, forkSnapshot())
	runSteps(sim, []step{
		{colC, true, 0}, // hold shift
		{colA, true, 10},
		{colA, false, 10},
		{colC, false, 10},
	})
	// The substituted semicolon is emitted without the held shift
	// (kept_modifiers is empty), which returns on the next report.
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(0, KeySemicolon),
		kbd(ModLShift),
		kbd(0),
	})
}

func TestForkKeptModifiers(t *testing.T) {
	snap := forkSnapshot()
	snap.Behavior.Fork.Forks[0].KeptModifiers = ModLShift | ModRShift
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colC, true, 0},
		{colA, true, 10},
		{colA, false, 10},
		{colC, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift, KeySemicolon),
		kbd(ModLShift),
		kbd(0),
	})
}

func TestForkReleaseUndoesSubstitution(t *testing.T) {
	// Shift released between press and release of the forked key: the
	// release must undo the semicolon, not the dot.
	sim := newTestSim(t, forkSnapshot())
	runSteps(sim, []step{
		{colC, true, 0},
		{colA, true, 10},
		{colC, false, 10},
		{colA, false, 10},
	})
	// The shift release changes nothing visible (the substitution
	// already suppressed it), so that report is coalesced away.
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(0, KeySemicolon),
		kbd(0),
	})
}

func TestForkBindableRebindsOnce(t *testing.T) {
	snap := forkSnapshot()
	snap.Behavior.Fork.Forks = []Fork{
		{
			Trigger:  Single(KC(KeyDot)),
			Negative: KC(KeyComma),
			Positive: KC(KeySemicolon),
			MatchAny: StateBits{Modifiers: ModLShift},
			Bindable: true,
		},
		{
			Trigger:  Single(KC(KeyComma)),
			Negative: KC(KeySlash),
			Positive: KC(KeySlash),
			MatchAny: StateBits{Modifiers: ModLShift},
		},
	}
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colA, true, 0},
		{colA, false, 10},
	})
	// Dot forks to Comma (negative), which rebinds once to Slash.
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeySlash),
		kbd(0),
	})
}

func TestForkEval(t *testing.T) {
	f := Fork{
		Negative:  KC(KeyA),
		Positive:  KC(KeyB),
		MatchAny:  StateBits{Modifiers: ModLCtrl},
		MatchNone: StateBits{Modifiers: ModLShift},
	}
	if a, _ := f.eval(StateBits{}); a != KC(KeyA) {
		t.Errorf("empty state: got %v", a)
	}
	if a, _ := f.eval(StateBits{Modifiers: ModLCtrl}); a != KC(KeyB) {
		t.Errorf("ctrl held: got %v", a)
	}
	if a, _ := f.eval(StateBits{Modifiers: ModLCtrl | ModLShift}); a != KC(KeyA) {
		t.Errorf("match_none violated: got %v", a)
	}
}
