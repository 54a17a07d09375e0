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

// StateBits is the keyboard state a fork matches against.
type StateBits struct {
	Modifiers ModifierCombination
	Leds      uint8
	Mouse     uint8
}

// any reports whether s and other share at least one set bit.
func (s StateBits) any(other StateBits) bool {
	return s.Modifiers&other.Modifiers != 0 || s.Leds&other.Leds != 0 || s.Mouse&other.Mouse != 0
}

// Fork substitutes one of two actions for a trigger depending on the
// current modifier/LED/mouse state.
type Fork struct {
	// Trigger is compared by identity against the committed action.
	Trigger KeyAction
	// Negative is emitted when the condition fails, Positive when it
	// holds.
	Negative Action
	Positive Action
	// The condition: at least one MatchAny bit present and no
	// MatchNone bit present.  An empty MatchAny never matches.
	MatchAny  StateBits
	MatchNone StateBits
	// KeptModifiers are the held modifiers that stay visible in the
	// substituted event's report; all others are masked out for that
	// one event.
	KeptModifiers ModifierCombination
	// Bindable re-feeds the substituted output through the fork list
	// one more time.
	Bindable bool
}

// eval picks the branch and the modifier bits to hide for this event.
func (f *Fork) eval(state StateBits) (Action, ModifierCombination) {
	if f.MatchAny.any(state) && !f.MatchNone.any(state) {
		return f.Positive, state.Modifiers &^ f.KeptModifiers
	}
	return f.Negative, 0
}

// forkResolver applies the configured forks to committed actions.
type forkResolver struct {
	cfg *ForkConfig
}

func (fr *forkResolver) find(a Action) *Fork {
	want := Single(a)
	for i := range fr.cfg.Forks {
		if fr.cfg.Forks[i].Trigger == want {
			return &fr.cfg.Forks[i]
		}
	}
	return nil
}

// apply runs the action through the fork list.  The returned suppress
// mask holds the modifier bits to hide from the report emitted for
// this event; it is zero when no fork matched.  Rebinding is
// single-level, so two bindable forks cannot oscillate.
func (fr *forkResolver) apply(a Action, state StateBits) (Action, ModifierCombination) {
	f := fr.find(a)
	if f == nil {
		return a, 0
	}
	out, suppress := f.eval(state)
	if f.Bindable {
		if f2 := fr.find(out); f2 != nil {
			out2, sup2 := f2.eval(state)
			return out2, suppress | sup2
		}
	}
	return out, suppress
}
