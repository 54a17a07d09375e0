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

// The scenario tests share a small keymap modeled on a one-row board:
//
//	layer 0:  A  TH(B,LShift)  TH(C,LGui)  LT(1,D)
//	layer 1:  Kp1  Kp2  Kp3  Kp4
const (
	colA = 0
	colB = 1 // tap B, hold LShift
	colC = 2 // tap C, hold LGui
	colD = 3 // tap D, hold layer 1
)

// testHoldMs and testGapMs are the timeouts the scenarios assume.
const (
	testHoldMs = 200
	testGapMs  = 200
)

func testSnapshot(mode MorseMode) *Snapshot {
	layer0 := [][]KeyAction{{
		Single(KC(KeyA)),
		MT(KeyB, ModLShift),
		MT(KeyC, ModLGui),
		LT(1, KeyD),
	}}
	layer1 := [][]KeyAction{{
		Single(KC(KeyKp1)),
		Single(KC(KeyKp2)),
		Single(KC(KeyKp3)),
		Single(KC(KeyKp4)),
	}}
	snap := &Snapshot{
		Rows: 1, Cols: 4,
		Layers:   [][][]KeyAction{layer0, layer1},
		Behavior: DefaultBehavior(),
	}
	snap.Behavior.Morse.DefaultProfile = MorseProfile{
		Mode:          mode,
		UnilateralTap: OptFalse,
		HoldTimeoutMs: testHoldMs,
		GapTimeoutMs:  testGapMs,
	}
	return snap
}

func newTestSim(t *testing.T, snap *Snapshot) *Simulator {
	t.Helper()
	sim, err := NewSimulator(snap)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	return sim
}

// kbd builds an expected keyboard report.
func kbd(mod ModifierCombination, keys ...uint16) Report {
	r := Report{Kind: ReportKeyboard, Modifier: mod.Bits()}
	for i, k := range keys {
		r.Keys[i] = uint8(k)
	}
	return r
}

// step is one (col, pressed, delay-ms) input for runSteps.
type step struct {
	col     uint8
	pressed bool
	delay   uint64
}

func runSteps(sim *Simulator, steps []step) {
	for _, st := range steps {
		sim.InjectKey(0, st.col, st.pressed, st.delay)
	}
}

func expectKeyboard(t *testing.T, sim *Simulator, settleMs uint64, want []Report) {
	t.Helper()
	if settleMs > 0 {
		sim.Idle(settleMs)
	}
	got := sim.KeyboardReports()
	if len(got) != len(want) {
		t.Fatalf("got %d reports, want %d\n got: %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
