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

func TestPatternEncoding(t *testing.T) {
	if EmptyPattern.Len() != 0 {
		t.Errorf("empty pattern length %d", EmptyPattern.Len())
	}
	single := EmptyPattern.Append(false)
	if single != 0b10 {
		t.Errorf("single tap pattern %#b, want 0b10", uint16(single))
	}
	ditDah := EmptyPattern.Append(false).Append(true)
	if ditDah != 0b101 {
		t.Errorf("dit dah pattern %#b, want 0b101", uint16(ditDah))
	}
	if ditDah.Len() != 2 {
		t.Errorf("dit dah length %d, want 2", ditDah.Len())
	}
	// Saturates at the maximum length.
	p := EmptyPattern
	for i := 0; i < 20; i++ {
		p = p.Append(true)
	}
	if p.Len() != MorsePatternMaxLen {
		t.Errorf("saturated length %d, want %d", p.Len(), MorsePatternMaxLen)
	}
}

func TestMorseTap(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 100},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyB),
		kbd(0),
	})
}

func TestMorseHoldByTimeout(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 300},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(0),
	})
}

func TestMorseMultiHold(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colB, true, 10},
		{colC, true, 10},
		{colA, true, 270},
		{colA, false, 20},
		{colB, false, 90},
		{colC, false, 20},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift | ModLGui),
		kbd(ModLShift|ModLGui, KeyA),
		kbd(ModLShift | ModLGui),
		kbd(ModLGui),
		kbd(0),
	})
}

func TestMorseHoldAfterTapTimeout(t *testing.T) {
	// A fresh press after the gap elapsed is an independent cycle and
	// may become a hold.
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 100},
		{colB, true, 300},
		{colB, false, 400},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyB),
		kbd(0),
		kbd(ModLShift),
		kbd(0),
	})
}

func TestMorseNormalModeRolling(t *testing.T) {
	// In normal mode other positions flow through while a morse key is
	// undecided.
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colA, true, 30},
		{colB, true, 10},
		{colA, false, 10},
		{colD, true, 30},
		{colC, true, 30},
		{colD, false, 100},
		{colB, false, 10},
		{colC, false, 100},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyA),
		kbd(0),
		kbd(0, KeyD),
		kbd(0),
		kbd(0, KeyB),
		kbd(0),
		kbd(ModLGui),
		kbd(0),
	})
}

func TestHoldOnOtherPress(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeHoldOnOtherPress))
	runSteps(sim, []step{
		{colB, true, 0},
		{colA, true, 50},
		{colA, false, 10},
		{colB, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift, KeyA),
		kbd(ModLShift),
		kbd(0),
	})
}

func TestHoldOnOtherPressLayerTap(t *testing.T) {
	// The triggering press resolves on the layer the hold activated.
	sim := newTestSim(t, testSnapshot(MorseModeHoldOnOtherPress))
	runSteps(sim, []step{
		{colD, true, 0},
		{colA, true, 50},
		{colA, false, 10},
		{colD, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyKp1),
		kbd(0),
	})
}

func TestPermissiveHoldTrigger(t *testing.T) {
	// The other key's full press-release nests inside ours: hold.
	sim := newTestSim(t, testSnapshot(MorseModePermissiveHold))
	runSteps(sim, []step{
		{colB, true, 10},
		{colA, true, 50},
		{colA, false, 10},
		{colB, false, 100},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift, KeyA),
		kbd(ModLShift),
		kbd(0),
	})
}

func TestPermissiveHoldRolling(t *testing.T) {
	// Rolled release order resolves as a tap and replays the held-back
	// press afterwards.
	sim := newTestSim(t, testSnapshot(MorseModePermissiveHold))
	runSteps(sim, []step{
		{colB, true, 10},
		{colA, true, 50},
		{colB, false, 50},
		{colA, false, 50},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyB),
		kbd(0),
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestPermissiveHoldLayerTap(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModePermissiveHold))
	runSteps(sim, []step{
		{colD, true, 10},
		{colB, true, 10},
		{colB, false, 100},
		{colD, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyKp2),
		kbd(0),
	})
}

func TestPermissiveHoldNested(t *testing.T) {
	// Two permissive keys held, a third key tapped inside both.
	sim := newTestSim(t, testSnapshot(MorseModePermissiveHold))
	runSteps(sim, []step{
		{colB, true, 10},
		{colC, true, 30},
		{colA, true, 30},
		{colA, false, 100},
		{colB, false, 50},
		{colC, false, 100},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift | ModLGui),
		kbd(ModLShift|ModLGui, KeyA),
		kbd(ModLShift | ModLGui),
		kbd(ModLGui),
		kbd(0),
	})
}

func TestPermissiveHoldTimeoutWhileBuffering(t *testing.T) {
	// The hold timeout beats the buffered key's release.
	sim := newTestSim(t, testSnapshot(MorseModePermissiveHold))
	runSteps(sim, []step{
		{colB, true, 0},
		{colA, true, 50},
		{colB, false, 300}, // hold fired at 200
		{colA, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift, KeyA),
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestTapDanceDoubleTap(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Behavior.Morse.Entries = []MorseEntry{{
		TapActions:  []Action{KC(KeyB), KC(KeyX)},
		HoldActions: []Action{MD(ModLShift)},
	}}
	snap.Layers[0][0][colB] = MorseKey(0)

	sim := newTestSim(t, snap)
	// Two quick taps resolve to the second tap action after the gap.
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 50},
		{colB, true, 50},
		{colB, false, 50},
	})
	expectKeyboard(t, sim, testGapMs+10, []Report{
		kbd(0, KeyX),
		kbd(0),
	})

	// A single tap needs the gap to pass before it fires.
	runSteps(sim, []step{
		{colB, true, 100},
		{colB, false, 50},
	})
	if got := sim.KeyboardReports(); len(got) != 0 {
		t.Fatalf("tap fired before gap: %v", got)
	}
	expectKeyboard(t, sim, testGapMs+10, []Report{
		kbd(0, KeyB),
		kbd(0),
	})
}

func TestTapDanceHoldAfterTap(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Behavior.Morse.Entries = []MorseEntry{{
		TapActions:  []Action{KC(KeyB), KC(KeyX)},
		HoldActions: []Action{MD(ModLShift), MD(ModLCtrl)},
	}}
	snap.Layers[0][0][colB] = MorseKey(0)

	sim := newTestSim(t, snap)
	// Tap once, then press and hold: the second hold action fires.
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 50},
		{colB, true, 50},
		{colB, false, 300},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLCtrl),
		kbd(0),
	})
}

func TestPatternMorse(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	ditDah := EmptyPattern.Append(false).Append(true)
	snap.Behavior.Morse.Entries = []MorseEntry{{
		TapActions: []Action{KC(KeyE)},
		PatternActions: map[MorsePattern]Action{
			ditDah: KC(KeyA),
		},
	}}
	snap.Layers[0][0][colB] = MorseKey(0)

	sim := newTestSim(t, snap)
	// Short tap then long tap: dit dah decodes to A.
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 50}, // dit
		{colB, true, 50},
		{colB, false, 250}, // dah (held past the hold timeout)
	})
	expectKeyboard(t, sim, testGapMs+10, []Report{
		kbd(0, KeyA),
		kbd(0),
	})

	// An unknown pattern falls back to the tap action row.
	runSteps(sim, []step{
		{colB, true, 100},
		{colB, false, 250}, // lone dah: not in the table
	})
	expectKeyboard(t, sim, testGapMs+10, []Report{
		kbd(0, KeyE),
		kbd(0),
	})
}

func TestEarlyFire(t *testing.T) {
	// tap == hold and nothing afterwards: fires on release without
	// waiting for the gap.
	snap := testSnapshot(MorseModeNormal)
	snap.Behavior.Morse.Entries = []MorseEntry{{
		TapActions:  []Action{KC(KeyB), NoAct},
		HoldActions: []Action{KC(KeyB)},
	}}
	snap.Layers[0][0][colB] = MorseKey(0)

	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 50},
	})
	// No Idle: the tap must already have fired.
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyB),
		kbd(0),
	})
}

func TestChordalHold(t *testing.T) {
	// Same-hand other keys must not trigger the permissive hold.
	snap := testSnapshot(MorseModePermissiveHold)
	snap.Behavior.Morse.ChordalHold = true
	snap.Hands = [][]Hand{{HandLeft, HandLeft, HandRight, HandRight}}

	sim := newTestSim(t, snap)
	// A (left) nests inside B (left): same hand, so the nested release
	// does not trigger the hold and B resolves as a tap on its own
	// release, replaying A afterwards.
	runSteps(sim, []step{
		{colB, true, 0},
		{colA, true, 50},
		{colA, false, 50},
		{colB, false, 50},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyB),
		kbd(0),
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestChordalHoldOppositeHand(t *testing.T) {
	snap := testSnapshot(MorseModePermissiveHold)
	snap.Behavior.Morse.ChordalHold = true
	snap.Hands = [][]Hand{{HandLeft, HandLeft, HandRight, HandRight}}

	sim := newTestSim(t, snap)
	// C (right) nests inside B (left): opposite hands, hold triggers.
	runSteps(sim, []step{
		{colB, true, 0},
		{colC, true, 50},
		{colC, false, 50},
		{colB, false, 50},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(ModLShift, KeyC),
		kbd(ModLShift),
		kbd(0),
	})
}
