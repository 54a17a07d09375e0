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

// hidAggregator owns the pressed-key registers and turns committed
// action deltas into reports.  Identical successive reports of a kind
// are coalesced.
type hidAggregator struct {
	nkro bool
	out  func(Report)
	// oneShot supplies the one-shot modifier contribution at emit
	// time.
	oneShot func() ModifierCombination

	keys [6]uint8
	age  [6]uint64
	seq  uint64
	// rollover is set when a seventh key evicted the oldest slot while
	// NKRO reporting is off.
	rollover bool

	bitmap [32]uint8

	// modCount counts holders per modifier bit: explicit Modifier
	// actions, modifier usages, and KeyWithModifier implicit bits.
	modCount [8]uint8

	// suppress hides modifier bits for the report emitted by the
	// current commit only (fork kept_modifiers).
	suppress ModifierCombination

	consumerUsage uint16
	consumerKey   Keycode
	systemUsage   uint8
	systemKey     Keycode

	mouseButtons uint8

	lastKeyboard *Report
	lastMouse    *Report
	lastConsumer *Report
	lastSystem   *Report
}

func newHidAggregator(nkro bool, out func(Report), oneShot func() ModifierCombination) *hidAggregator {
	h := &hidAggregator{nkro: nkro, out: out, oneShot: oneShot}
	// Seed the dedup state with the all-idle reports so a no-op commit
	// right after boot cannot emit an empty report.
	kind := ReportKeyboard
	if nkro {
		kind = ReportNkro
	}
	h.lastKeyboard = &Report{Kind: kind}
	h.lastConsumer = &Report{Kind: ReportConsumer}
	h.lastSystem = &Report{Kind: ReportSystem}
	h.lastMouse = &Report{Kind: ReportMouse}
	return h
}

// modifiers is the current modifier byte: held explicit and implicit
// bits plus the one-shot contribution, minus the transient suppression.
func (h *hidAggregator) modifiers() uint8 {
	var m ModifierCombination
	for i := range h.modCount {
		if h.modCount[i] > 0 {
			m |= 1 << uint(i)
		}
	}
	m |= h.oneShot()
	m &^= h.suppress
	return m.Bits()
}

// heldModifiers is the explicit/implicit modifier state without the
// one-shot contribution, for fork matching.
func (h *hidAggregator) heldModifiers() ModifierCombination {
	var m ModifierCombination
	for i := range h.modCount {
		if h.modCount[i] > 0 {
			m |= 1 << uint(i)
		}
	}
	return m
}

// buttons exposes the mouse button register for fork matching.
func (h *hidAggregator) buttons() uint8 { return h.mouseButtons }

// apply commits one action edge to the registers.  Of the layer
// actions only LayerOnWithModifier reaches here, for its modifier half;
// the other layer, one-shot, macro and mouse-emulation actions are
// routed by the dispatcher.
func (h *hidAggregator) apply(a Action, pressed bool) {
	switch a.Kind {
	case ActionKey:
		h.applyKeycode(a.Key, pressed)
	case ActionModifier:
		h.applyModBits(a.Mod, pressed)
	case ActionKeyWithModifier:
		h.applyModBits(a.Mod, pressed)
		h.applyKeycode(a.Key, pressed)
	case ActionLayerOnWithModifier:
		h.applyModBits(a.Mod, pressed)
	}
}

func (h *hidAggregator) applyModBits(m ModifierCombination, pressed bool) {
	for i := 0; i < 8; i++ {
		if m&(1<<uint(i)) == 0 {
			continue
		}
		if pressed {
			h.modCount[i]++
		} else if h.modCount[i] > 0 {
			h.modCount[i]--
		}
	}
}

func (h *hidAggregator) applyKeycode(k Keycode, pressed bool) {
	switch {
	case k.IsModifier():
		h.applyModBits(ModifiersFromBits(k.ModifierBit()), pressed)
	case k.IsBasic():
		h.applyBasic(uint8(k.Code), pressed)
	default:
		if usage, ok := k.ConsumerUsage(); ok {
			h.applyConsumer(k, usage, pressed)
			return
		}
		if usage, ok := k.SystemUsage(); ok {
			h.applySystem(k, usage, pressed)
			return
		}
	}
}

func (h *hidAggregator) applyBasic(code uint8, pressed bool) {
	byteIdx, bit := code/8, uint(code%8)
	if pressed {
		h.bitmap[byteIdx] |= 1 << bit
		// Free slot, else evict the oldest (LRU rollover).
		slot := -1
		for i, k := range h.keys {
			if k == 0 {
				slot = i
				break
			}
		}
		if slot < 0 {
			oldest := 0
			for i := 1; i < len(h.keys); i++ {
				if h.age[i] < h.age[oldest] {
					oldest = i
				}
			}
			slot = oldest
			if !h.nkro {
				h.rollover = true
			}
		}
		h.seq++
		h.keys[slot] = code
		h.age[slot] = h.seq
	} else {
		h.bitmap[byteIdx] &^= 1 << bit
		for i, k := range h.keys {
			if k == code {
				h.keys[i] = 0
				h.age[i] = 0
				break
			}
		}
	}
}

func (h *hidAggregator) applyConsumer(k Keycode, usage uint16, pressed bool) {
	if pressed {
		// Most recently pressed wins.
		h.consumerUsage = usage
		h.consumerKey = k
	} else if h.consumerKey == k {
		h.consumerUsage = 0
		h.consumerKey = Keycode{}
	}
	h.flushConsumer()
}

func (h *hidAggregator) applySystem(k Keycode, usage uint8, pressed bool) {
	if pressed {
		h.systemUsage = usage
		h.systemKey = k
	} else if h.systemKey == k {
		h.systemUsage = 0
		h.systemKey = Keycode{}
	}
	h.flushSystem()
}

// pressButton and releaseButton maintain the mouse button register.
func (h *hidAggregator) pressButton(bit uint8) {
	h.mouseButtons |= bit
	h.emitMouse(0, 0, 0, 0)
}

func (h *hidAggregator) releaseButton(bit uint8) {
	h.mouseButtons &^= bit
	h.emitMouse(0, 0, 0, 0)
}

// flushKeyboard emits the keyboard (or NKRO) report if the registers
// moved since the last one.
func (h *hidAggregator) flushKeyboard() {
	var r Report
	if h.nkro {
		r = Report{Kind: ReportNkro, Modifier: h.modifiers(), Bitmap: h.bitmap}
	} else {
		r = Report{Kind: ReportKeyboard, Modifier: h.modifiers(), Keys: h.keys}
	}
	if h.lastKeyboard != nil && *h.lastKeyboard == r {
		return
	}
	cp := r
	h.lastKeyboard = &cp
	h.out(r)
}

func (h *hidAggregator) flushConsumer() {
	r := Report{Kind: ReportConsumer, Usage: h.consumerUsage}
	if h.lastConsumer != nil && *h.lastConsumer == r {
		return
	}
	cp := r
	h.lastConsumer = &cp
	h.out(r)
}

func (h *hidAggregator) flushSystem() {
	r := Report{Kind: ReportSystem, SystemUsage: h.systemUsage}
	if h.lastSystem != nil && *h.lastSystem == r {
		return
	}
	cp := r
	h.lastSystem = &cp
	h.out(r)
}

// emitMouse ships a mouse report.  Motion reports repeat with fresh
// deltas, so only delta-free duplicates (button state) are coalesced.
func (h *hidAggregator) emitMouse(dx, dy, wheel, pan int8) {
	r := Report{Kind: ReportMouse, Buttons: h.mouseButtons, X: dx, Y: dy, Wheel: wheel, Pan: pan}
	if dx == 0 && dy == 0 && wheel == 0 && pan == 0 {
		if h.lastMouse != nil && *h.lastMouse == r {
			return
		}
	}
	cp := r
	h.lastMouse = &cp
	h.out(r)
}
