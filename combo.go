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

// Combo maps a set of near-simultaneous key actions to a single
// output.  The configured part is Triggers/Output/Layer; the rest is
// runtime state owned by the dispatcher.
type Combo struct {
	// Triggers are the ingredient actions, at most ComboMaxLength.
	Triggers []KeyAction
	// Output replaces the ingredients when they complete in time.
	Output KeyAction
	// Layer, when non-nil, arms the combo only while that layer is
	// active.
	Layer *uint8

	satisfied uint8 // bitmask over Triggers
	positions [ComboMaxLength]Pos
	fired     bool
	heldMask  uint8 // positions still physically down after firing
}

// NewCombo builds a combo for the given ingredients and output.
func NewCombo(triggers []KeyAction, output KeyAction, layer *uint8) Combo {
	return Combo{Triggers: triggers, Output: output, Layer: layer}
}

func (c *Combo) reset() {
	c.satisfied = 0
	c.fired = false
	c.heldMask = 0
}

func (c *Combo) isSatisfied() bool {
	return c.satisfied == (1<<uint(len(c.Triggers)))-1
}

func (c *Combo) isArming() bool {
	return c.satisfied != 0 && !c.fired
}

// match records pos as satisfying the first open trigger equal to
// action.  It reports whether the action was taken as an ingredient.
func (c *Combo) match(action KeyAction, pos Pos) bool {
	if c.fired {
		return false
	}
	for i, t := range c.Triggers {
		if c.satisfied&(1<<uint(i)) != 0 {
			continue
		}
		if t == action {
			c.satisfied |= 1 << uint(i)
			c.positions[i] = pos
			return true
		}
	}
	return false
}

// holdsPosition reports whether pos is one of the satisfied
// ingredients.
func (c *Combo) holdsPosition(pos Pos) bool {
	for i := range c.Triggers {
		if c.satisfied&(1<<uint(i)) != 0 && c.positions[i] == pos {
			return true
		}
	}
	return false
}

// fire transitions to the fired state; all satisfied positions are
// considered held until released.
func (c *Combo) fire() {
	c.fired = true
	c.heldMask = c.satisfied
}

// releasePosition drops pos from the held set of a fired combo.  The
// first drop releases the combo output (first return); the second
// return reports whether pos belonged to this combo at all.
func (c *Combo) releasePosition(pos Pos) (releaseOutput, mine bool) {
	if !c.fired {
		return false, false
	}
	for i := range c.Triggers {
		if c.heldMask&(1<<uint(i)) != 0 && c.positions[i] == pos {
			full := c.heldMask == c.satisfied
			c.heldMask &^= 1 << uint(i)
			if c.heldMask == 0 {
				c.reset()
			}
			return full, true
		}
	}
	return false, false
}

// comboVerdict is the outcome of offering an event to the combos.
type comboVerdict uint8

const (
	// comboPass: not combo business, process the event normally.
	comboPass comboVerdict = iota
	// comboBuffered: the press joined an arming combo and is held back.
	comboBuffered
	// comboCompleted: the press completed a combo; fire it.
	comboCompleted
	// comboAborted: arming collapsed; the held-back events must be
	// replayed before the current event.
	comboAborted
	// comboOutputReleased: the release ends a fired combo's output.
	comboOutputReleased
	// comboSwallowed: the release belonged to a fired combo's
	// remaining ingredient; drop it.
	comboSwallowed
)

// comboResolver arms and fires combos over the configured list, which
// is kept sorted longest-first.
type comboResolver struct {
	cfg *ComboConfig

	buffer       []KeyboardEvent
	started      Instant
	gen          uint64 // arming deadline generation
	fireIdx      int    // combo that completed, for comboCompleted
	lastComboPos Pos
}

func newComboResolver(cfg *ComboConfig) *comboResolver {
	return &comboResolver{cfg: cfg, fireIdx: -1}
}

func (cr *comboResolver) arming() bool {
	return len(cr.buffer) > 0
}

// onPress offers a resolved press to the combos.
func (cr *comboResolver) onPress(ev KeyboardEvent, action KeyAction, layerActive func(uint8) bool) comboVerdict {
	matched := false
	for i := range cr.cfg.Combos {
		c := &cr.cfg.Combos[i]
		if c.fired {
			continue
		}
		if c.Layer != nil && !layerActive(*c.Layer) {
			continue
		}
		if c.match(action, ev.Pos) {
			matched = true
		}
	}
	if !matched {
		if cr.arming() {
			cr.abortArming()
			return comboAborted
		}
		return comboPass
	}

	if !cr.arming() {
		cr.started = ev.Timestamp
	}
	cr.buffer = append(cr.buffer, ev)

	// Longest-first: fire a completed combo unless a longer one is
	// still arming and has swallowed every buffered press so far.
	for i := range cr.cfg.Combos {
		c := &cr.cfg.Combos[i]
		if !c.isSatisfied() || c.fired {
			continue
		}
		if cr.longerStillPossible(i) {
			break
		}
		cr.fireIdx = i
		return comboCompleted
	}
	return comboBuffered
}

// longerStillPossible reports whether a combo sorted before idx (so
// with at least as many triggers) is arming and contains every
// buffered position, meaning firing idx now would steal its prefix.
func (cr *comboResolver) longerStillPossible(idx int) bool {
	for i := 0; i < idx; i++ {
		c := &cr.cfg.Combos[i]
		if !c.isArming() || len(c.Triggers) <= len(cr.cfg.Combos[idx].Triggers) {
			continue
		}
		all := true
		for _, bev := range cr.buffer {
			if !c.holdsPosition(bev.Pos) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// onRelease offers a release to the combos.
func (cr *comboResolver) onRelease(ev KeyboardEvent) comboVerdict {
	// Release of a fired combo ingredient.
	for i := range cr.cfg.Combos {
		c := &cr.cfg.Combos[i]
		releaseOut, mine := c.releasePosition(ev.Pos)
		if !mine {
			continue
		}
		if releaseOut {
			cr.lastComboPos = ComboPos(uint8(i))
			return comboOutputReleased
		}
		return comboSwallowed
	}
	// Release of a buffered (not yet fired) ingredient collapses the
	// arming attempt.
	if cr.arming() {
		for _, bev := range cr.buffer {
			if bev.Pos == ev.Pos && bev.Pressed {
				cr.abortArming()
				return comboAborted
			}
		}
	}
	return comboPass
}

// completeFire consumes the fired combo's buffered ingredients and
// returns the output together with its synthesized position.
func (cr *comboResolver) completeFire() (KeyAction, Pos) {
	idx := cr.fireIdx
	c := &cr.cfg.Combos[idx]
	c.fire()

	// Drop the fired combo's ingredients; anything else buffered (a
	// partial longer combo) replays on the next abort or timeout.
	kept := cr.buffer[:0]
	for _, bev := range cr.buffer {
		if !c.holdsPosition(bev.Pos) {
			kept = append(kept, bev)
		}
	}
	cr.buffer = kept
	if len(cr.buffer) == 0 {
		cr.gen++
	}
	cr.fireIdx = -1

	// Arming state of the other combos is cleared.
	for i := range cr.cfg.Combos {
		if i != idx && !cr.cfg.Combos[i].fired {
			cr.cfg.Combos[i].satisfied = 0
		}
	}
	return c.Output, ComboPos(uint8(idx))
}

// abortArming clears arming state; the caller replays takeBuffer().
func (cr *comboResolver) abortArming() {
	for i := range cr.cfg.Combos {
		if !cr.cfg.Combos[i].fired {
			cr.cfg.Combos[i].satisfied = 0
		}
	}
	cr.gen++
}

// onTimeout handles the arming deadline: fire the longest satisfied
// combo if one completed, otherwise give the buffer back for replay.
func (cr *comboResolver) onTimeout() (fired bool) {
	for i := range cr.cfg.Combos {
		c := &cr.cfg.Combos[i]
		if c.isSatisfied() && !c.fired {
			cr.fireIdx = i
			return true
		}
	}
	cr.abortArming()
	return false
}

// takeBuffer returns and clears the held-back events, in timestamp
// order.
func (cr *comboResolver) takeBuffer() []KeyboardEvent {
	b := cr.buffer
	cr.buffer = nil
	return b
}
