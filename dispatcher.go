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
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// queuedEvent is one event awaiting processing.  Events replayed from
// the combo resolver's hold-back buffer skip combo arming so a replay
// cannot arm the combo that just released it; morse buffer replays go
// through combo arming again.
type queuedEvent struct {
	ev        KeyboardEvent
	skipCombo bool
}

// Dispatcher is the single-owner conductor of the pipeline.  It owns
// the keymap and every resolver; all methods must be called from one
// goroutine (Run, or a test harness driving the core directly).
type Dispatcher struct {
	km    *KeyMap
	combo *comboResolver
	forks forkResolver
	osm   *oneShotMods
	osl   *oneShotLayer
	hid   *hidAggregator
	mouse *mouseKeys
	macro *macroRunner
	hub   controllerHub

	timers timerQueue
	now    Instant

	morse       map[Pos]*morseState
	morseOrder  []Pos
	morseSerial uint64

	// committed pairs each pressed position with the concrete action
	// applied on press, so the release undoes exactly that action.
	committed map[Pos]Action

	queue []queuedEvent

	// leds mirrors the host LED indicator state for fork matching.
	leds uint8

	outQ      []Report
	events    chan KeyboardEvent
	mutations chan Mutation
	reports   chan Report
}

// NewDispatcher validates the snapshot and builds the pipeline.
func NewDispatcher(snap *Snapshot) (*Dispatcher, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	snap.normalize()

	d := &Dispatcher{
		km:        NewKeyMap(snap),
		morse:     make(map[Pos]*morseState),
		committed: make(map[Pos]Action),
		events:    make(chan KeyboardEvent, snap.EventChanCap),
		mutations: make(chan Mutation, snap.MutationChanCap),
		reports:   make(chan Report, snap.ReportChanCap),
	}
	b := d.km.Behavior()
	d.combo = newComboResolver(&b.Combo)
	d.forks = forkResolver{cfg: &b.Fork}
	d.osm = newOneShotMods(&b.OneShot)
	d.osl = newOneShotLayer(&b.OneShot)
	d.hid = newHidAggregator(snap.Nkro, func(r Report) { d.outQ = append(d.outQ, r) }, d.osm.Active)
	d.mouse = newMouseKeys(&b.Mouse)
	d.macro = newMacroRunner(&b.Macro, d.hid)
	return d, nil
}

// PostEvent offers a matrix event to the dispatcher without blocking.
// A full queue is a scanner pacing bug and returns ErrEventQFull.
func (d *Dispatcher) PostEvent(ev KeyboardEvent) error {
	select {
	case d.events <- ev:
		return nil
	default:
		return ErrEventQFull
	}
}

// PostMutation offers a live edit without blocking.
func (d *Dispatcher) PostMutation(mut Mutation) error {
	select {
	case d.mutations <- mut:
		return nil
	default:
		return ErrEventQFull
	}
}

// Reports is the outbound report channel consumed by the transport.
func (d *Dispatcher) Reports() <-chan Report { return d.reports }

// Controller subscribes to outbound controller events.
func (d *Dispatcher) Controller() <-chan ControllerEvent { return d.hub.Subscribe() }

// SetLedIndicators records the host LED state for fork matching.
func (d *Dispatcher) SetLedIndicators(leds uint8) { d.leds = leds }

// KeyMap exposes the keymap to the owning goroutine (tests, Vial
// service adapters).
func (d *Dispatcher) KeyMap() *KeyMap { return d.km }

// Run is the cooperative loop: it selects over matrix events, live
// edits, and the next timer deadline, and pushes finished reports with
// backpressure.  It returns when the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	base := time.Now()
	clock := func() Instant { return Instant(time.Since(base) / time.Millisecond) }

	for {
		// Ship pending reports first; a slow transport stalls the
		// pipeline rather than dropping anything.
		for len(d.outQ) > 0 {
			select {
			case d.reports <- d.outQ[0]:
				d.outQ = d.outQ[1:]
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var timerC <-chan time.Time
		var timer *time.Timer
		if dl, ok := d.timers.next(); ok {
			wait := time.Duration(0)
			if now := clock(); dl.at > now {
				wait = time.Duration(dl.at-now) * time.Millisecond
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev := <-d.events:
			d.ProcessEvent(ev)
		case mut := <-d.mutations:
			applyMutation(d.km, mut)
		case <-timerC:
			d.Advance(clock())
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// ProcessEvent runs one matrix event through the pipeline.  Deadlines
// due at or before the event's timestamp are serviced first.
func (d *Dispatcher) ProcessEvent(ev KeyboardEvent) {
	if ev.Timestamp < d.now {
		ev.Timestamp = d.now
	}
	d.drain(ev.Timestamp)
	d.queue = append(d.queue, queuedEvent{ev: ev})
	d.drain(ev.Timestamp)
}

// Advance moves the clock forward, firing due deadlines.
func (d *Dispatcher) Advance(now Instant) {
	d.drain(now)
}

// TakeReports drains the pending report queue; test harnesses and the
// simulator use it instead of the channel.
func (d *Dispatcher) TakeReports() []Report {
	r := d.outQ
	d.outQ = nil
	return r
}

// drain processes queued events and due deadlines until quiescent.
// Replayed events run before any deadline: they carry timestamps from
// the past and must keep their original order.
func (d *Dispatcher) drain(target Instant) {
	for {
		if len(d.queue) > 0 {
			qe := d.queue[0]
			d.queue = d.queue[1:]
			d.route(qe)
			continue
		}
		if dl, ok := d.timers.popDue(target); ok {
			if d.now < dl.at {
				d.now = dl.at
			}
			d.handleDeadline(dl)
			continue
		}
		break
	}
	if d.now < target {
		d.now = target
	}
}

// prepend pushes replayed events to the front of the queue, keeping
// their relative order.
func (d *Dispatcher) prepend(evs []queuedEvent) {
	if len(evs) == 0 {
		return
	}
	d.queue = append(append([]queuedEvent{}, evs...), d.queue...)
}

func bufferedToQueued(evs []KeyboardEvent, skipCombo bool) []queuedEvent {
	out := make([]queuedEvent, len(evs))
	for i, ev := range evs {
		out[i] = queuedEvent{ev: ev, skipCombo: skipCombo}
	}
	return out
}

// route is the fixed resolution order for one event.
func (d *Dispatcher) route(qe queuedEvent) {
	ev := qe.ev
	if ev.Timestamp > d.now {
		d.now = ev.Timestamp
	}

	// 1. The position's own unresolved morse state has first claim.
	if s, ok := d.morse[ev.Pos]; ok {
		d.routeMorseOwn(s, ev)
		return
	}

	if ev.Pressed {
		d.routePress(qe)
	} else {
		d.routeRelease(qe)
	}
}

func (d *Dispatcher) routeMorseOwn(s *morseState, ev KeyboardEvent) {
	if ev.Pressed {
		if s.onPress(ev.Timestamp) {
			d.armMorseHold(s)
			return
		}
		log.Warnf("dispatcher: press at %s while already down", ev.Pos)
		return
	}
	commits, done := s.onRelease(ev.Timestamp)
	if done {
		// The resolution's press edges carry the one-shot attachment;
		// it is dropped before the first release edge so the final
		// report of the resolution already has the latched modifiers
		// cleared.
		split := len(commits)
		for i, c := range commits {
			if !c.pressed {
				split = i
				break
			}
		}
		d.applyMorseCommits(s.pos, commits[:split])
		d.osm.release(s.pos)
		d.applyMorseCommits(s.pos, commits[split:])
		d.finalizeMorse(s)
		return
	}
	d.applyMorseCommits(s.pos, commits)
	if s.phase == morseReleased {
		d.armMorseGap(s, ev.Timestamp)
		// The decision moved off the pressed key; anything held back
		// replays (and may immediately resolve it as a tap).
		d.flushMorseBuffer(s)
	}
}

// bufferingState returns the newest morse state holding other
// positions' events back.
func (d *Dispatcher) bufferingState() *morseState {
	for i := len(d.morseOrder) - 1; i >= 0; i-- {
		if s, ok := d.morse[d.morseOrder[i]]; ok && s.buffersOthers() {
			return s
		}
	}
	return nil
}

// chordalBlocked reports whether chordal hold suppresses a hold
// trigger from otherPos for s.
func (d *Dispatcher) chordalBlocked(s *morseState, otherPos Pos) bool {
	if !d.km.Behavior().Morse.ChordalHold {
		return false
	}
	hm, ho := d.km.Hand(s.pos), d.km.Hand(otherPos)
	if hm == HandUnknown || ho == HandUnknown {
		return false
	}
	return hm == ho
}

// unilateralTriggered reports whether a same-hand press forces the tap
// outcome for s.
func (d *Dispatcher) unilateralTriggered(s *morseState, otherPos Pos) bool {
	if !s.profile.UnilateralTap.Get(false) {
		return false
	}
	hm, ho := d.km.Hand(s.pos), d.km.Hand(otherPos)
	return hm != HandUnknown && hm == ho
}

func (d *Dispatcher) routePress(qe queuedEvent) {
	ev := qe.ev

	// 2. A permissive-hold key under decision holds everything back.
	if s := d.bufferingState(); s != nil {
		if d.unilateralTriggered(s, ev.Pos) {
			commits, done := s.forceTap()
			d.applyMorseCommits(s.pos, commits)
			d.requeue(qe) // after the held-back events below
			if done {
				d.finalizeMorse(s)
			} else {
				d.flushMorseBuffer(s)
			}
			return
		}
		s.buffer = append(s.buffer, ev)
		return
	}

	// 3. Other-key press triggers for unresolved morse keys.
	d.pressTriggers(ev.Pos)

	// 4. Layer lookup, with the cache written for the release.
	action := d.km.ActionWithLayerCache(ev)

	// 5. Combo arming claims the press before morse does.
	if !qe.skipCombo && len(d.km.Behavior().Combo.Combos) > 0 {
		switch d.combo.onPress(ev, action, d.km.LayerActive) {
		case comboBuffered:
			if len(d.combo.buffer) == 1 {
				d.timers.schedule(deadline{
					at:    d.combo.started.Add(d.km.Behavior().Combo.TimeoutMs),
					owner: ownerCombo,
					gen:   d.combo.gen,
				})
			}
			return
		case comboCompleted:
			output, cpos := d.combo.completeFire()
			d.hub.publish(ControllerEvent{Kind: CtrlComboFired, Combo: cpos.Combo})
			d.prepend(bufferedToQueued(d.combo.takeBuffer(), true))
			d.pressAction(output, cpos, ev.Timestamp)
			return
		case comboAborted:
			d.prepend(append(bufferedToQueued(d.combo.takeBuffer(), true), queuedEvent{ev: ev, skipCombo: true}))
			return
		}
	}

	// 6. Commit.
	d.pressAction(action, ev.Pos, ev.Timestamp)
}

// pressTriggers lets an other-key press resolve unresolved morse keys
// (HoldOnOtherPress, gap-pending taps, unilateral taps).
func (d *Dispatcher) pressTriggers(otherPos Pos) {
	for _, pos := range append([]Pos{}, d.morseOrder...) {
		s, ok := d.morse[pos]
		if !ok || pos == otherPos {
			continue
		}
		switch {
		case s.phase == morsePressing && d.unilateralTriggered(s, otherPos):
			commits, done := s.forceTap()
			d.applyMorseCommits(s.pos, commits)
			if done {
				d.finalizeMorse(s)
			}
		case s.phase == morsePressing && s.profile.Mode == MorseModeHoldOnOtherPress && !d.chordalBlocked(s, otherPos):
			commits, _ := s.forceHold()
			d.applyMorseCommits(s.pos, commits)
		case s.phase == morseReleased && s.profile.Mode != MorseModeNormal:
			commits, done := s.forceTap()
			if done {
				d.osm.release(s.pos)
			}
			d.applyMorseCommits(s.pos, commits)
			if done {
				d.finalizeMorse(s)
			}
		}
	}
}

func (d *Dispatcher) routeRelease(qe queuedEvent) {
	ev := qe.ev

	// 2. Releases reaching a buffering morse key either trigger its
	// permissive hold (full press-release nested inside) or join the
	// buffer.
	if s := d.bufferingState(); s != nil {
		nested := false
		for _, bev := range s.buffer {
			if bev.Pos == ev.Pos && bev.Pressed {
				nested = true
				break
			}
		}
		s.buffer = append(s.buffer, ev)
		if nested && !d.chordalBlocked(s, ev.Pos) {
			commits, _ := s.forceHold()
			d.applyMorseCommits(s.pos, commits)
			d.flushMorseBuffer(s)
		}
		return
	}

	// 3. Combo ownership of the release.
	if !qe.skipCombo && len(d.km.Behavior().Combo.Combos) > 0 {
		switch d.combo.onRelease(ev) {
		case comboOutputReleased:
			d.km.ActionWithLayerCache(ev) // clear the cache entry
			d.releaseCommitted(d.combo.lastComboPos)
			return
		case comboSwallowed:
			d.km.ActionWithLayerCache(ev)
			return
		case comboAborted:
			d.prepend(append(bufferedToQueued(d.combo.takeBuffer(), true), queuedEvent{ev: ev, skipCombo: true}))
			return
		}
	}

	// 4. Undo whatever the press committed.
	d.km.ActionWithLayerCache(ev) // symmetric cache pop
	d.releaseCommitted(ev.Pos)
}

// requeue puts the event back at the head of the queue.
func (d *Dispatcher) requeue(qe queuedEvent) {
	d.queue = append([]queuedEvent{qe}, d.queue...)
}

// flushMorseBuffer replays a state's held-back events.
func (d *Dispatcher) flushMorseBuffer(s *morseState) {
	buf := s.buffer
	s.buffer = nil
	d.prepend(bufferedToQueued(buf, false))
}

// pressAction routes a resolved key action for a committed press.
func (d *Dispatcher) pressAction(ka KeyAction, pos Pos, ts Instant) {
	switch ka.Kind {
	case KeyActionNo, KeyActionTransparent:
		return
	case KeyActionMorse, KeyActionTapHold:
		var entry MorseEntry
		if ka.Kind == KeyActionTapHold {
			entry = tapHoldEntry(ka)
		} else {
			entries := d.km.Behavior().Morse.Entries
			if int(ka.Morse) >= len(entries) {
				log.Warnf("dispatcher: morse index %d out of range at %s", ka.Morse, pos)
				return
			}
			entry = entries[ka.Morse]
		}
		profile := d.km.Behavior().Morse.resolve(entry.Profile)
		d.morseSerial++
		s := newMorseState(pos, entry, profile, ts, d.morseSerial)
		d.morse[pos] = s
		d.morseOrder = append(d.morseOrder, pos)
		d.consumeOneShots(pos)
		d.armMorseHold(s)
		return
	case KeyActionSingle:
		a := ka.Action
		if a.Kind != ActionOneShotModifier && a.Kind != ActionOneShotLayer {
			d.consumeOneShots(pos)
		}
		final := d.applyResolvedAction(a, pos, true)
		if final.Kind != ActionNo {
			d.committed[pos] = final
		}
	}
}

// consumeOneShots latches pending one-shots onto the press at pos.
func (d *Dispatcher) consumeOneShots(pos Pos) {
	d.osm.consume(pos)
	if deact, layer := d.osl.consume(); deact {
		d.km.DeactivateLayer(layer)
		d.publishLayer()
	}
}

// releaseCommitted undoes the press-committed action for pos.
func (d *Dispatcher) releaseCommitted(pos Pos) {
	a, ok := d.committed[pos]
	if !ok {
		// A release whose press was discarded (combo ingredient, morse
		// suppression) or a No key.  Nothing to undo.
		d.osm.release(pos)
		return
	}
	delete(d.committed, pos)
	d.osm.release(pos)
	d.applyResolvedAction(a, pos, false)
}

// applyMorseCommits applies a morse resolution's action deltas through
// the same committed-action pairing as ordinary keys.
func (d *Dispatcher) applyMorseCommits(pos Pos, commits []morseCommit) {
	for _, c := range commits {
		if c.pressed {
			final := d.applyResolvedAction(c.action, pos, true)
			if final.Kind != ActionNo {
				d.committed[pos] = final
			}
		} else {
			if a, ok := d.committed[pos]; ok {
				delete(d.committed, pos)
				d.applyResolvedAction(a, pos, false)
			} else {
				d.applyResolvedAction(c.action, pos, false)
			}
		}
	}
}

// finalizeMorse drops a resolved state.
func (d *Dispatcher) finalizeMorse(s *morseState) {
	delete(d.morse, s.pos)
	for i, p := range d.morseOrder {
		if p == s.pos {
			d.morseOrder = append(d.morseOrder[:i], d.morseOrder[i+1:]...)
			break
		}
	}
	d.osm.release(s.pos)
	d.flushMorseBuffer(s)
}

// applyResolvedAction commits one concrete action edge.  The returned
// action is what was actually applied after fork substitution; the
// caller records it for the matching release.
func (d *Dispatcher) applyResolvedAction(a Action, pos Pos, pressed bool) Action {
	switch a.Kind {
	case ActionNo, ActionTransparent:
		return NoAct

	case ActionKey:
		if a.Key.IsMouse() {
			d.applyMouseKey(a.Key.Code, pressed)
			return a
		}
		return d.commitHid(a, pressed)

	case ActionModifier, ActionKeyWithModifier:
		return d.commitHid(a, pressed)

	case ActionLayerOn:
		if pressed {
			d.km.ActivateLayer(a.Layer)
		} else {
			d.km.DeactivateLayer(a.Layer)
		}
		d.publishLayer()
		return a

	case ActionLayerOff:
		if pressed {
			d.km.DeactivateLayer(a.Layer)
			d.publishLayer()
		}
		return a

	case ActionLayerToggle:
		if pressed {
			d.km.ToggleLayer(a.Layer)
			d.publishLayer()
		}
		return a

	case ActionLayerToggleOnly:
		if pressed {
			d.km.ToggleLayerOnly(a.Layer)
			d.publishLayer()
		}
		return a

	case ActionDefaultLayer:
		if pressed {
			d.km.SetDefaultLayer(a.Layer)
			d.hub.publish(ControllerEvent{Kind: CtrlDefaultLayerChange, Layer: a.Layer})
		}
		return a

	case ActionLayerOnWithModifier:
		if pressed {
			d.km.ActivateLayer(a.Layer)
		} else {
			d.km.DeactivateLayer(a.Layer)
		}
		d.publishLayer()
		d.hid.apply(a, pressed)
		d.hid.flushKeyboard()
		return a

	case ActionOneShotModifier:
		if pressed {
			if d.osm.onPress(pos, a.Mod) {
				d.timers.schedule(deadline{
					at:    d.now.Add(d.km.Behavior().OneShot.TimeoutMs),
					owner: ownerOneShotMod,
					gen:   d.osm.gen,
				})
			}
		} else {
			d.osm.onRelease(pos)
		}
		d.hid.flushKeyboard()
		return a

	case ActionOneShotLayer:
		if pressed {
			d.km.ActivateLayer(a.Layer)
			d.publishLayer()
			if d.osl.onPress(pos, a.Layer) {
				d.timers.schedule(deadline{
					at:    d.now.Add(d.km.Behavior().OneShot.TimeoutMs),
					owner: ownerOneShotLayer,
					gen:   d.osl.gen,
				})
			}
		} else {
			still := d.osl.onRelease(pos)
			if !still && !d.osl.latched {
				d.km.DeactivateLayer(a.Layer)
				d.publishLayer()
			}
		}
		return a

	case ActionTriggerMacro:
		if pressed {
			if d.macro.start(a.Macro) {
				d.stepMacro()
			}
		}
		return a

	case ActionTriLayerLower:
		if tl := d.km.Behavior().TriLayer; tl != nil {
			return d.applyResolvedAction(MO(tl.Lower), pos, pressed)
		}
		return NoAct

	case ActionTriLayerUpper:
		if tl := d.km.Behavior().TriLayer; tl != nil {
			return d.applyResolvedAction(MO(tl.Upper), pos, pressed)
		}
		return NoAct
	}
	return NoAct
}

// commitHid runs the fork substitution and applies the result to the
// HID registers.
func (d *Dispatcher) commitHid(a Action, pressed bool) Action {
	if !pressed {
		d.hid.apply(a, false)
		d.hid.flushKeyboard()
		return a
	}
	final := a
	if len(d.km.Behavior().Fork.Forks) > 0 {
		state := StateBits{
			Modifiers: d.hid.heldModifiers() | d.osm.Active(),
			Leds:      d.leds,
			Mouse:     d.hid.buttons(),
		}
		var suppress ModifierCombination
		final, suppress = d.forks.apply(a, state)
		d.hid.suppress = suppress
	}
	d.hid.apply(final, true)
	d.hid.flushKeyboard()
	d.hid.suppress = 0
	return final
}

func (d *Dispatcher) applyMouseKey(code uint16, pressed bool) {
	if bit := buttonBit(code); bit != 0 {
		if pressed {
			d.hid.pressButton(bit)
		} else {
			d.hid.releaseButton(bit)
		}
		return
	}
	cfg := &d.km.Behavior().Mouse
	if pressed {
		armKey, armWheel := d.mouse.press(code)
		if armKey {
			d.timers.schedule(deadline{at: d.now.Add(cfg.KeyIntervalMs), owner: ownerMouseKey, gen: d.mouse.keyGen})
		}
		if armWheel {
			d.timers.schedule(deadline{at: d.now.Add(cfg.WheelIntervalMs), owner: ownerMouseWheel, gen: d.mouse.wheelGen})
		}
	} else {
		d.mouse.release(code)
	}
}

func (d *Dispatcher) publishLayer() {
	d.hub.publish(ControllerEvent{Kind: CtrlLayerChange, Layer: d.km.ActivatedLayer()})
}

func (d *Dispatcher) armMorseHold(s *morseState) {
	d.timers.schedule(deadline{
		at:     s.pressTS.Add(uint64(s.profile.HoldTimeoutMs)),
		owner:  ownerMorseHold,
		pos:    s.pos,
		serial: s.serial,
		gen:    s.gen,
	})
}

func (d *Dispatcher) armMorseGap(s *morseState, releaseTS Instant) {
	d.timers.schedule(deadline{
		at:     releaseTS.Add(uint64(s.profile.GapTimeoutMs)),
		owner:  ownerMorseGap,
		pos:    s.pos,
		serial: s.serial,
		gen:    s.gen,
	})
}

func (d *Dispatcher) stepMacro() {
	delayMs, done := d.macro.step()
	if !done && delayMs > 0 {
		d.timers.schedule(deadline{at: d.now.Add(uint64(delayMs)), owner: ownerMacro, gen: d.macro.gen})
	}
}

// handleDeadline services one fired timer, ignoring logically
// cancelled entries by generation mismatch.
func (d *Dispatcher) handleDeadline(dl deadline) {
	switch dl.owner {
	case ownerMorseHold:
		s, ok := d.morse[dl.pos]
		if !ok || s.serial != dl.serial || s.gen != dl.gen {
			return
		}
		commits, _ := s.onHoldTimeout()
		d.applyMorseCommits(s.pos, commits)
		if !s.buffersOthers() {
			d.flushMorseBuffer(s)
		}

	case ownerMorseGap:
		s, ok := d.morse[dl.pos]
		if !ok || s.serial != dl.serial || s.gen != dl.gen {
			return
		}
		commits, done := s.onGapTimeout()
		if done {
			d.osm.release(s.pos)
		}
		d.applyMorseCommits(s.pos, commits)
		if done {
			d.finalizeMorse(s)
		}

	case ownerCombo:
		if dl.gen != d.combo.gen || !d.combo.arming() {
			return
		}
		if d.combo.onTimeout() {
			output, cpos := d.combo.completeFire()
			d.hub.publish(ControllerEvent{Kind: CtrlComboFired, Combo: cpos.Combo})
			d.prepend(bufferedToQueued(d.combo.takeBuffer(), true))
			d.pressAction(output, cpos, dl.at)
		} else {
			d.prepend(bufferedToQueued(d.combo.takeBuffer(), true))
		}

	case ownerOneShotMod:
		if dl.gen != d.osm.gen {
			return
		}
		d.osm.onTimeout()
		d.hid.flushKeyboard()

	case ownerOneShotLayer:
		if dl.gen != d.osl.gen {
			return
		}
		if deact, layer := d.osl.onTimeout(); deact {
			d.km.DeactivateLayer(layer)
			d.publishLayer()
		}

	case ownerMacro:
		if dl.gen != d.macro.gen {
			return
		}
		d.stepMacro()

	case ownerMouseKey:
		if dl.gen != d.mouse.keyGen {
			return
		}
		if dx, dy, ok := d.mouse.onKeyInterval(); ok {
			d.hid.emitMouse(dx, dy, 0, 0)
			d.timers.schedule(deadline{at: dl.at.Add(d.km.Behavior().Mouse.KeyIntervalMs), owner: ownerMouseKey, gen: d.mouse.keyGen})
		}

	case ownerMouseWheel:
		if dl.gen != d.mouse.wheelGen {
			return
		}
		if wheel, pan, ok := d.mouse.onWheelInterval(); ok {
			d.hid.emitMouse(0, 0, wheel, pan)
			d.timers.schedule(deadline{at: dl.at.Add(d.km.Behavior().Mouse.WheelIntervalMs), owner: ownerMouseWheel, gen: d.mouse.wheelGen})
		}
	}
}
