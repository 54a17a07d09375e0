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
	"fmt"
	"sort"
)

// Snapshot is the construction-time configuration of the pipeline: the
// keymap contents plus every behavior knob.  It is consumed once by
// NewDispatcher; live changes afterwards travel on the mutation
// channel.
type Snapshot struct {
	Rows, Cols   uint8
	DefaultLayer uint8

	// Layers[layer][row][col]; every layer must be Rows x Cols.
	Layers [][][]KeyAction
	// Encoders[layer][id]; may be nil when the board has none.
	Encoders [][]EncoderAction
	// Hands[row][col] for chordal hold; may be nil.
	Hands [][]Hand

	Behavior BehaviorConfig

	// Nkro selects bitmap keyboard reports instead of the 6-slot boot
	// layout.
	Nkro bool

	// Channel capacities; zero means the package default.
	EventChanCap    int
	ReportChanCap   int
	MutationChanCap int
}

// NumEncoders returns the encoder count of one layer (all layers have
// the same shape after validation).
func (s *Snapshot) NumEncoders() int {
	if len(s.Encoders) == 0 {
		return 0
	}
	return len(s.Encoders[0])
}

// Validate checks shape and bound invariants.  All returned errors wrap
// ErrInvalidConfig.
func (s *Snapshot) Validate() error {
	if s.Rows == 0 || s.Cols == 0 {
		return fmt.Errorf("%w: matrix is %dx%d", ErrInvalidConfig, s.Rows, s.Cols)
	}
	if len(s.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidConfig)
	}
	if len(s.Layers) > 32 {
		return fmt.Errorf("%w: %d layers, max 32", ErrInvalidConfig, len(s.Layers))
	}
	if int(s.DefaultLayer) >= len(s.Layers) {
		return fmt.Errorf("%w: default layer %d out of range", ErrInvalidConfig, s.DefaultLayer)
	}
	for li, layer := range s.Layers {
		if len(layer) != int(s.Rows) {
			return fmt.Errorf("%w: layer %d has %d rows, want %d", ErrInvalidConfig, li, len(layer), s.Rows)
		}
		for ri, row := range layer {
			if len(row) != int(s.Cols) {
				return fmt.Errorf("%w: layer %d row %d has %d cols, want %d", ErrInvalidConfig, li, ri, len(row), s.Cols)
			}
		}
	}
	if len(s.Encoders) != 0 && len(s.Encoders) != len(s.Layers) {
		return fmt.Errorf("%w: %d encoder layers, want %d", ErrInvalidConfig, len(s.Encoders), len(s.Layers))
	}
	for li, encs := range s.Encoders {
		if len(encs) != s.NumEncoders() {
			return fmt.Errorf("%w: encoder layer %d has %d encoders, want %d", ErrInvalidConfig, li, len(encs), s.NumEncoders())
		}
	}
	if s.Hands != nil {
		if len(s.Hands) != int(s.Rows) {
			return fmt.Errorf("%w: hand map has %d rows, want %d", ErrInvalidConfig, len(s.Hands), s.Rows)
		}
		for ri, row := range s.Hands {
			if len(row) != int(s.Cols) {
				return fmt.Errorf("%w: hand map row %d has %d cols, want %d", ErrInvalidConfig, ri, len(row), s.Cols)
			}
		}
	}

	b := &s.Behavior
	if len(b.Combo.Combos) > ComboMaxNum {
		return fmt.Errorf("%w: %d combos, max %d", ErrInvalidConfig, len(b.Combo.Combos), ComboMaxNum)
	}
	for ci := range b.Combo.Combos {
		c := &b.Combo.Combos[ci]
		if len(c.Triggers) < 2 || len(c.Triggers) > ComboMaxLength {
			return fmt.Errorf("%w: combo %d has %d triggers, want 2..%d", ErrInvalidConfig, ci, len(c.Triggers), ComboMaxLength)
		}
		if c.Layer != nil && int(*c.Layer) >= len(s.Layers) {
			return fmt.Errorf("%w: combo %d scoped to layer %d, out of range", ErrInvalidConfig, ci, *c.Layer)
		}
	}
	if len(b.Fork.Forks) > ForkMaxNum {
		return fmt.Errorf("%w: %d forks, max %d", ErrInvalidConfig, len(b.Fork.Forks), ForkMaxNum)
	}
	if len(b.Morse.Entries) > MorseMaxNum {
		return fmt.Errorf("%w: %d morse entries, max %d", ErrInvalidConfig, len(b.Morse.Entries), MorseMaxNum)
	}
	for mi := range b.Morse.Entries {
		e := &b.Morse.Entries[mi]
		if len(e.TapActions) > MorseMaxPatterns || len(e.HoldActions) > MorseMaxPatterns {
			return fmt.Errorf("%w: morse %d exceeds %d patterns", ErrInvalidConfig, mi, MorseMaxPatterns)
		}
		for pat := range e.PatternActions {
			if pat.Len() == 0 || pat.Len() > MorsePatternMaxLen {
				return fmt.Errorf("%w: morse %d has malformed pattern %#x", ErrInvalidConfig, mi, uint16(pat))
			}
		}
	}
	if len(b.Macro.Space) > MacroSpaceSize {
		return fmt.Errorf("%w: macro space is %d bytes, max %d", ErrInvalidConfig, len(b.Macro.Space), MacroSpaceSize)
	}

	// Morse indices referenced from the keymap must exist.
	for li, layer := range s.Layers {
		for ri, row := range layer {
			for ci, ka := range row {
				if ka.Kind == KeyActionMorse && int(ka.Morse) >= len(b.Morse.Entries) {
					return fmt.Errorf("%w: key (%d,%d) layer %d references morse %d, only %d entries",
						ErrInvalidConfig, ri, ci, li, ka.Morse, len(b.Morse.Entries))
				}
			}
		}
	}
	return nil
}

// normalize sorts combos longest-first so that a longer combo always
// wins over a shorter prefix, and fills channel capacity defaults.
func (s *Snapshot) normalize() {
	sort.SliceStable(s.Behavior.Combo.Combos, func(i, j int) bool {
		return len(s.Behavior.Combo.Combos[i].Triggers) > len(s.Behavior.Combo.Combos[j].Triggers)
	})
	if s.EventChanCap < DefaultEventChanCap {
		s.EventChanCap = DefaultEventChanCap
	}
	if s.ReportChanCap <= 0 {
		s.ReportChanCap = DefaultReportChanCap
	}
	if s.MutationChanCap <= 0 {
		s.MutationChanCap = DefaultMutationChanCap
	}
}
