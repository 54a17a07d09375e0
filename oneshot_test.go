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

// Layout for the one-shot tests:
//
//	layer 0:  OSM(LShift)  OSL(1)  A  TH(B,LShift)
//	layer 1:  OSM(LShift|LCtrl)  No  C  D
func oneShotSnapshot() *Snapshot {
	layer0 := [][]KeyAction{{
		Single(OSM(ModLShift)),
		Single(OSL(1)),
		Single(KC(KeyA)),
		MT(KeyB, ModLShift),
	}}
	layer1 := [][]KeyAction{{
		Single(OSM(ModLShift | ModLCtrl)),
		NoKey,
		Single(KC(KeyC)),
		Single(KC(KeyD)),
	}}
	snap := &Snapshot{
		Rows: 1, Cols: 4,
		Layers:   [][][]KeyAction{layer0, layer1},
		Behavior: DefaultBehavior(),
	}
	snap.Behavior.Morse.DefaultProfile.HoldTimeoutMs = testHoldMs
	snap.Behavior.Morse.DefaultProfile.GapTimeoutMs = testGapMs
	return snap
}

const (
	colOsm = 0
	colOsl = 1
	colKey = 2
	colTH  = 3
)

func TestOneShotBasic(t *testing.T) {
	sim := newTestSim(t, oneShotSnapshot())
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colOsm, false, 10},
		{colKey, true, 10},
		{colKey, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift, KeyA),
		kbd(0),
	})
}

func TestOneShotTimeout(t *testing.T) {
	snap := oneShotSnapshot()
	snap.Behavior.OneShot.TimeoutMs = 100
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colOsm, false, 10},
		{colKey, true, 150}, // past the latch window
		{colKey, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestOneShotHeldActsAsModifier(t *testing.T) {
	sim := newTestSim(t, oneShotSnapshot())
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colKey, true, 10},
		{colKey, false, 10},
		{colOsm, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift, KeyA),
		kbd(ModLShift),
		kbd(0),
	})
}

func TestOneShotAppliesToOneKeyOnly(t *testing.T) {
	sim := newTestSim(t, oneShotSnapshot())
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colOsm, false, 10},
		{colKey, true, 10},
		{colKey, false, 10},
		{colTH, true, 10},
		{colTH, false, 50},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift, KeyA),
		kbd(0),
		kbd(0, KeyB),
		kbd(0),
	})
}

func TestOneShotActivateOnKeypress(t *testing.T) {
	snap := oneShotSnapshot()
	snap.Behavior.OneShot.ActivateOnKeypress = true
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colOsm, false, 10},
	})
	// The modifier is visible immediately, before any consumer.
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
	})
	runSteps(sim, []step{
		{colKey, true, 10},
		{colKey, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift, KeyA),
		kbd(0),
	})
}

func TestOneShotSendOnSecondPress(t *testing.T) {
	snap := oneShotSnapshot()
	snap.Behavior.OneShot.SendOnSecondPress = true
	snap.Behavior.OneShot.ActivateOnKeypress = true
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colOsm, false, 10},
		// Second press: the modifier is sent for this press only.
		{colOsm, true, 10},
		{colOsm, false, 100},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift),
		kbd(0),
	})
}

func TestOneShotRidesTapHold(t *testing.T) {
	// The latched modifier applies to a tap-hold key's tap outcome.
	sim := newTestSim(t, oneShotSnapshot())
	runSteps(sim, []step{
		{colOsm, true, 10},
		{colOsm, false, 10},
		{colTH, true, 10},
		{colTH, false, 50},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift, KeyB),
		kbd(0),
	})
}

func TestOneShotLayerBasic(t *testing.T) {
	sim := newTestSim(t, oneShotSnapshot())
	runSteps(sim, []step{
		{colOsl, true, 10},
		{colOsl, false, 10},
		{colKey, true, 10}, // resolves on layer 1
		{colKey, false, 10},
		{colKey, true, 10}, // latch consumed: back to layer 0
		{colKey, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyC),
		kbd(0),
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestOneShotLayerTimeout(t *testing.T) {
	snap := oneShotSnapshot()
	snap.Behavior.OneShot.TimeoutMs = 100
	sim := newTestSim(t, snap)
	runSteps(sim, []step{
		{colOsl, true, 10},
		{colOsl, false, 10},
		{colKey, true, 200},
		{colKey, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(0, KeyA),
		kbd(0),
	})
}

func TestOneShotStacking(t *testing.T) {
	// OSM on layer 1 latches Shift+Ctrl on top of the layer-0 latch.
	sim := newTestSim(t, oneShotSnapshot())
	runSteps(sim, []step{
		{colOsl, true, 10},
		{colOsl, false, 10},
		{colOsm, true, 10}, // resolves on layer 1: OSM(LShift|LCtrl)
		{colOsm, false, 10},
		// The next plain press consumes both one-shots: it resolves on
		// the latched layer and carries the latched modifiers.
		{colKey, true, 10},
		{colKey, false, 10},
	})
	expectKeyboard(t, sim, 0, []Report{
		kbd(ModLShift|ModLCtrl, KeyC),
		kbd(0),
	})
}
