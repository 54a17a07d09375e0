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

// Simulator drives the dispatcher core with a virtual clock.  It is
// the deterministic harness used by the tests and the terminal demo:
// events are injected with relative delays, deadlines fire exactly
// when the virtual clock passes them, and nothing sleeps.
type Simulator struct {
	d   *Dispatcher
	now Instant
}

// NewSimulator builds a pipeline around the snapshot.
func NewSimulator(snap *Snapshot) (*Simulator, error) {
	d, err := NewDispatcher(snap)
	if err != nil {
		return nil, err
	}
	return &Simulator{d: d}, nil
}

// Dispatcher exposes the underlying core.
func (s *Simulator) Dispatcher() *Dispatcher { return s.d }

// Now returns the virtual clock.
func (s *Simulator) Now() Instant { return s.now }

// InjectKey advances the clock by delayMs and feeds one matrix
// transition.
func (s *Simulator) InjectKey(row, col uint8, pressed bool, delayMs uint64) {
	s.now = s.now.Add(delayMs)
	s.d.ProcessEvent(KeyboardEvent{Pos: KeyPos(row, col), Pressed: pressed, Timestamp: s.now})
}

// InjectEncoder advances the clock and feeds one encoder detent
// (a press immediately followed by its release).
func (s *Simulator) InjectEncoder(id uint8, dir EncoderDirection, delayMs uint64) {
	s.now = s.now.Add(delayMs)
	pos := EncoderPos(id, dir)
	s.d.ProcessEvent(KeyboardEvent{Pos: pos, Pressed: true, Timestamp: s.now})
	s.d.ProcessEvent(KeyboardEvent{Pos: pos, Pressed: false, Timestamp: s.now})
}

// Idle advances the clock with no input, firing any deadlines that
// come due.
func (s *Simulator) Idle(ms uint64) {
	s.now = s.now.Add(ms)
	s.d.Advance(s.now)
}

// Mutate applies a live edit between events.
func (s *Simulator) Mutate(mut Mutation) error {
	return applyMutation(s.d.km, mut)
}

// Reports drains the reports emitted since the last call.
func (s *Simulator) Reports() []Report {
	return s.d.TakeReports()
}

// KeyboardReports drains and filters to keyboard reports only, which
// is what most scenarios assert on.
func (s *Simulator) KeyboardReports() []Report {
	var out []Report
	for _, r := range s.d.TakeReports() {
		if r.Kind == ReportKeyboard || r.Kind == ReportNkro {
			out = append(out, r)
		}
	}
	return out
}
