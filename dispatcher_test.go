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
	"testing"
)

func TestInvalidConfigRefused(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Layers[0][0][colA] = MorseKey(3) // no morse table entry
	if _, err := NewDispatcher(snap); err == nil {
		t.Fatal("morse index out of range accepted")
	}

	snap = testSnapshot(MorseModeNormal)
	snap.DefaultLayer = 7
	if _, err := NewDispatcher(snap); err == nil {
		t.Fatal("default layer out of range accepted")
	}

	snap = testSnapshot(MorseModeNormal)
	snap.Behavior.Combo.Combos = []Combo{
		NewCombo([]KeyAction{Single(KC(KeyA))}, Single(KC(KeyX)), nil),
	}
	if _, err := NewDispatcher(snap); err == nil {
		t.Fatal("one-trigger combo accepted")
	}
}

func TestPostEventOverflow(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	d, err := NewDispatcher(snap)
	if err != nil {
		t.Fatal(err)
	}
	var overflow error
	for i := 0; i < DefaultEventChanCap+1; i++ {
		overflow = d.PostEvent(PressEvent(0, 0, Instant(i)))
	}
	if overflow != ErrEventQFull {
		t.Errorf("got %v, want ErrEventQFull", overflow)
	}
}

func TestNoConsecutiveIdenticalReports(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colA, true, 0},
		{colB, true, 10},
		{colB, false, 300},
		{colA, false, 10},
		{colC, true, 10},
		{colC, false, 400},
	})
	sim.Idle(500)
	reports := sim.Reports()
	for i := 1; i < len(reports); i++ {
		if reports[i].Kind == reports[i-1].Kind && reports[i] == reports[i-1] {
			t.Errorf("reports %d and %d identical: %v", i-1, i, reports[i])
		}
	}
}

func TestPressReleasePairing(t *testing.T) {
	// Every press committed to the registers is undone by its release,
	// in any interleaving.
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colA, true, 0},
		{colB, true, 5},
		{colC, true, 5},
		{colD, true, 5},
		{colD, false, 400},
		{colC, false, 10},
		{colB, false, 10},
		{colA, false, 10},
	})
	sim.Idle(500)
	reports := sim.KeyboardReports()
	if len(reports) == 0 {
		t.Fatal("no reports")
	}
	final := reports[len(reports)-1]
	if final != kbd(0) {
		t.Errorf("registers not empty at the end: %v", final)
	}
}

func TestMutationBetweenEvents(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	if err := sim.Mutate(Mutation{Kind: MutKeymapKey, Layer: 0, Row: 0, Col: colA, Action: Single(KC(KeyZ))}); err != nil {
		t.Fatal(err)
	}
	runSteps(sim, []step{
		{colA, true, 0},
		{colA, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyZ),
		kbd(0),
	})
}

func TestMutationRejected(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	if err := sim.Mutate(Mutation{Kind: MutKeymapKey, Layer: 9, Action: Single(KC(KeyZ))}); err != ErrMutationRejected {
		t.Errorf("bad layer: %v", err)
	}
	if err := sim.Mutate(Mutation{Kind: MutKeymapKey, Row: 5, Col: 0, Action: Single(KC(KeyZ))}); err != ErrMutationRejected {
		t.Errorf("bad row: %v", err)
	}
	if err := sim.Mutate(Mutation{Kind: MutComboTimeout, Ms: 0}); err != ErrMutationRejected {
		t.Errorf("zero timeout: %v", err)
	}
	// The keymap is unchanged after rejections.
	runSteps(sim, []step{
		{colA, true, 0},
		{colA, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestMutationTimeoutsApply(t *testing.T) {
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	if err := sim.Mutate(Mutation{Kind: MutMorseHoldTimeout, Ms: 50}); err != nil {
		t.Fatal(err)
	}
	runSteps(sim, []step{
		{colB, true, 0},
		{colB, false, 100}, // held past the shortened timeout
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(0),
	})
}

func TestEncoderEndToEnd(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Encoders = [][]EncoderAction{
		{{Clockwise: Single(KC(KeyAudioVolUp)), CounterClockwise: Single(KC(KeyAudioVolDown))}},
		{{Clockwise: TransparentKey, CounterClockwise: TransparentKey}},
	}
	sim := newTestSim(t, snap)
	sim.InjectEncoder(0, EncoderClockwise, 0)
	var usages []uint16
	for _, r := range sim.Reports() {
		if r.Kind == ReportConsumer {
			usages = append(usages, r.Usage)
		}
	}
	if len(usages) != 2 || usages[0] != UsageConsumerVolumeUp || usages[1] != 0 {
		t.Errorf("consumer usages %v", usages)
	}
}

func TestLayerActions(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Layers[0][0][colC] = Single(TG(1))
	snap.Layers[1][0][colC] = TransparentKey
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colC, true, 0}, // toggle layer 1 on
		{colC, false, 10},
		{colA, true, 10},
		{colA, false, 10},
		{colC, true, 10}, // toggle layer 1 off
		{colC, false, 10},
		{colA, true, 10},
		{colA, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyKp1),
		kbd(0),
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestLayerOnWithModifier(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Layers[0][0][colC] = Single(LM(1, ModLAlt))
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colC, true, 0},
		{colA, true, 10},
		{colA, false, 10},
		{colC, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLAlt),
		kbd(ModLAlt, KeyKp1),
		kbd(ModLAlt),
		kbd(0),
	})
}

func TestControllerLayerEvents(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Layers[0][0][colC] = Single(MO(1))
	d, err := NewDispatcher(snap)
	if err != nil {
		t.Fatal(err)
	}
	events := d.Controller()
	d.ProcessEvent(PressEvent(0, colC, 0))
	select {
	case ev := <-events:
		if ev.Kind != CtrlLayerChange || ev.Layer != 1 {
			t.Errorf("got %+v", ev)
		}
	default:
		t.Fatal("no controller event published")
	}
}

func TestMacroTrigger(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Behavior.Macro.Space = EncodeMacros([][]MacroOp{
		{MacroTap(KeyH), MacroTap(KeyI)},
	})
	snap.Layers[0][0][colC] = Single(MacroTrigger(0))
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colC, true, 0},
		{colC, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyH),
		kbd(0),
		kbd(0, KeyI),
		kbd(0),
	})
}

func TestMacroDelaySuspends(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Behavior.Macro.Space = EncodeMacros([][]MacroOp{
		{MacroTap(KeyH), MacroDelay(100), MacroTap(KeyI)},
	})
	snap.Layers[0][0][colC] = Single(MacroTrigger(0))
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colC, true, 0},
		{colC, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyH),
		kbd(0),
	})
	// The tail runs when the delay elapses.
	expectKeyboard(t, sim, 120, []Report{
		kbd(0, KeyI),
		kbd(0),
	})
}

func TestMouseKeysEmitPacedReports(t *testing.T) {
	snap := testSnapshot(MorseModeNormal)
	snap.Layers[0][0][colC] = Single(KC(KeyMouseRight))
	snap.Layers[0][0][colD] = Single(KC(KeyMouseBtn1))
	sim := newTestSim(t, snap)

	sim.InjectKey(0, colC, true, 0)
	sim.Idle(65) // three 20ms intervals
	sim.InjectKey(0, colC, false, 0)
	var moves []Report
	for _, r := range sim.Reports() {
		if r.Kind == ReportMouse {
			moves = append(moves, r)
		}
	}
	if len(moves) != 3 {
		t.Fatalf("got %d mouse reports, want 3", len(moves))
	}
	for i, m := range moves {
		if m.X <= 0 || m.Y != 0 {
			t.Errorf("move %d: %v", i, m)
		}
	}
	// Acceleration ramps the step up.
	if moves[2].X < moves[0].X {
		t.Errorf("no ramp: %v", moves)
	}

	// Buttons report immediately.
	sim.InjectKey(0, colD, true, 10)
	sim.InjectKey(0, colD, false, 10)
	var buttons []uint8
	for _, r := range sim.Reports() {
		if r.Kind == ReportMouse {
			buttons = append(buttons, r.Buttons)
		}
	}
	if len(buttons) != 2 || buttons[0] != 1 || buttons[1] != 0 {
		t.Errorf("button reports %v", buttons)
	}
}

func TestReportOrderAcrossResolution(t *testing.T) {
	// A delayed morse resolution shifts its report after later keys'
	// reports; the order within each position is still press before
	// release.
	sim := newTestSim(t, testSnapshot(MorseModeNormal))
	runSteps(sim, []step{
		{colB, true, 0},  // undecided
		{colA, true, 10}, // flows through immediately (normal mode)
		{colA, false, 10},
		{colB, false, 280}, // hold fired at 200
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyA),
		kbd(0),
		kbd(ModLShift),
		kbd(0),
	})
}
