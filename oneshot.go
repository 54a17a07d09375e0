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

// oneShotMods latches modifier combinations that apply to exactly the
// next key press.  The dispatcher feeds it OSM presses/releases and
// consuming key presses/releases; the HID aggregator reads Active to
// build the modifier byte.
type oneShotMods struct {
	cfg *OneShotConfig

	// latched is armed and waiting for a consumer.
	latched ModifierCombination
	// active contributes to the modifier byte right now.
	active ModifierCombination
	// held tracks OSM positions physically down, and their mods.
	held map[Pos]ModifierCombination
	// attached maps a consuming key position to the mods it carries
	// for its press-release span.
	attached map[Pos]ModifierCombination
	// secondPress tracks OSM positions acting as plain modifiers after
	// a send-on-second-press.
	secondPress map[Pos]ModifierCombination

	gen uint64 // timeout generation
}

func newOneShotMods(cfg *OneShotConfig) *oneShotMods {
	return &oneShotMods{
		cfg:         cfg,
		held:        make(map[Pos]ModifierCombination),
		attached:    make(map[Pos]ModifierCombination),
		secondPress: make(map[Pos]ModifierCombination),
	}
}

// Active is the one-shot contribution to the modifier byte.
func (os *oneShotMods) Active() ModifierCombination {
	return os.active
}

// armed reports whether a latch is waiting for a consumer.
func (os *oneShotMods) armed() bool { return os.latched != 0 }

// onPress handles an OSM key press.  The return reports whether a
// timeout deadline should be (re)armed.
func (os *oneShotMods) onPress(pos Pos, m ModifierCombination) (armTimeout bool) {
	if os.cfg.SendOnSecondPress && os.latched.Contains(m) && m != 0 {
		// Second press of an already-latched OSM: plain modifier for
		// the duration of this press.
		os.secondPress[pos] = m
		os.latched &^= m
		os.active |= m
		os.gen++
		return false
	}
	os.held[pos] = m
	os.latched |= m
	if os.cfg.ActivateOnKeypress {
		os.active |= m
	}
	os.gen++
	return true
}

// onRelease handles an OSM key release.
func (os *oneShotMods) onRelease(pos Pos) {
	if m, ok := os.secondPress[pos]; ok {
		delete(os.secondPress, pos)
		os.active &^= m
		return
	}
	m, ok := os.held[pos]
	if !ok {
		return
	}
	delete(os.held, pos)
	// Was the latch already consumed while the OSM was held?  Then the
	// physical hold was the only thing keeping the modifier active.
	if os.latched&m == 0 && !os.attachedHas(m) {
		os.active &^= m
	}
}

func (os *oneShotMods) attachedHas(m ModifierCombination) bool {
	for _, am := range os.attached {
		if am&m != 0 {
			return true
		}
	}
	return false
}

// consume latches onto a non-OSM key press: the latched modifiers ride
// along for that key's whole press-release span.
func (os *oneShotMods) consume(pos Pos) {
	if os.latched == 0 {
		return
	}
	os.active |= os.latched
	os.attached[pos] = os.latched
	os.latched = 0
	os.gen++ // cancel the timeout
}

// release drops the attachment when the consuming key comes back up.
func (os *oneShotMods) release(pos Pos) {
	m, ok := os.attached[pos]
	if !ok {
		return
	}
	delete(os.attached, pos)
	keep := ModifierCombination(0)
	for _, hm := range os.held {
		keep |= hm
	}
	for _, am := range os.attached {
		keep |= am
	}
	keep |= os.latched
	os.active &^= m &^ keep
}

// onTimeout drops an unconsumed latch without emitting anything.
func (os *oneShotMods) onTimeout() {
	m := os.latched
	os.latched = 0
	if m == 0 {
		return
	}
	keep := ModifierCombination(0)
	for _, hm := range os.held {
		keep |= hm
	}
	for _, am := range os.attached {
		keep |= am
	}
	os.active &^= m &^ keep
}

// oneShotLayer latches a layer for exactly one following press.
type oneShotLayer struct {
	cfg *OneShotConfig

	latched bool
	layer   uint8
	heldPos map[Pos]uint8
	gen     uint64
}

func newOneShotLayer(cfg *OneShotConfig) *oneShotLayer {
	return &oneShotLayer{cfg: cfg, heldPos: make(map[Pos]uint8)}
}

// onPress latches the layer; the keymap activation is done by the
// dispatcher so the next lookup resolves on it.
func (ol *oneShotLayer) onPress(pos Pos, layer uint8) (armTimeout bool) {
	ol.heldPos[pos] = layer
	ol.latched = true
	ol.layer = layer
	ol.gen++
	return true
}

// onRelease handles the OSL key release.  The layer stays latched for
// the next press; physical hold beyond consumption behaves as a plain
// momentary layer, which the dispatcher tracks via heldPos.
func (ol *oneShotLayer) onRelease(pos Pos) (stillHeld bool) {
	delete(ol.heldPos, pos)
	return len(ol.heldPos) > 0
}

// consume is called on the next non-OSL press; the return is the layer
// to deactivate after the lookup, if the latch was armed and the OSL
// key is no longer physically held.
func (ol *oneShotLayer) consume() (deactivate bool, layer uint8) {
	if !ol.latched {
		return false, 0
	}
	ol.latched = false
	ol.gen++
	if len(ol.heldPos) > 0 {
		return false, 0
	}
	return true, ol.layer
}

// onTimeout drops the latch; the return is the layer to deactivate if
// nothing holds it anymore.
func (ol *oneShotLayer) onTimeout() (deactivate bool, layer uint8) {
	if !ol.latched {
		return false, 0
	}
	ol.latched = false
	if len(ol.heldPos) > 0 {
		return false, 0
	}
	return true, ol.layer
}
