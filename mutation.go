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
	"sort"

	log "github.com/sirupsen/logrus"
)

// MutationKind discriminates live keymap edits.
type MutationKind uint8

const (
	// MutKeymapKey stores a key action at (layer, row, col).
	MutKeymapKey MutationKind = iota
	// MutEncoder stores a key action at (layer, encoder, direction).
	MutEncoder
	// MutDefaultLayer changes the default layer.
	MutDefaultLayer
	// MutMorseHoldTimeout changes the default hold timeout (ms).
	MutMorseHoldTimeout
	// MutMorseGapTimeout changes the default gap timeout (ms).
	MutMorseGapTimeout
	// MutComboTimeout changes the combo arming window (ms).
	MutComboTimeout
	// MutOneShotTimeout changes the one-shot latch window (ms).
	MutOneShotTimeout
	// MutCombosReplace swaps the whole combo list.
	MutCombosReplace
	// MutForksReplace swaps the whole fork list.
	MutForksReplace
	// MutMorsesReplace swaps the whole morse table.
	MutMorsesReplace
	// MutMacrosReplace swaps the macro space.
	MutMacrosReplace
)

// Mutation is one live edit from the host-protocol service.  The
// dispatcher applies it between events, never mid-event.
type Mutation struct {
	Kind MutationKind

	Layer     uint8
	Row, Col  uint8
	Encoder   uint8
	Direction EncoderDirection
	Action    KeyAction

	Ms uint64

	Combos []Combo
	Forks  []Fork
	Morses []MorseEntry
	Space  []byte
}

// applyMutation validates and applies one edit.  Invalid edits are
// rejected with a warning and the keymap is left unchanged.
func applyMutation(km *KeyMap, mut Mutation) error {
	b := km.Behavior()
	switch mut.Kind {
	case MutKeymapKey:
		if int(mut.Layer) >= km.NumLayers() {
			log.Warnf("mutation: keymap key layer %d out of range: %v", mut.Layer, ErrMutationRejected)
			return ErrMutationRejected
		}
		rows, cols := km.Size()
		if mut.Row >= rows || mut.Col >= cols {
			log.Warnf("mutation: keymap key (%d,%d) out of range: %v", mut.Row, mut.Col, ErrMutationRejected)
			return ErrMutationRejected
		}
		if mut.Action.Kind == KeyActionMorse && int(mut.Action.Morse) >= len(b.Morse.Entries) {
			log.Warnf("mutation: morse index %d out of range: %v", mut.Action.Morse, ErrMutationRejected)
			return ErrMutationRejected
		}
		km.SetActionAt(KeyPos(mut.Row, mut.Col), mut.Layer, mut.Action)
	case MutEncoder:
		if int(mut.Layer) >= km.NumLayers() {
			log.Warnf("mutation: encoder layer %d out of range: %v", mut.Layer, ErrMutationRejected)
			return ErrMutationRejected
		}
		km.SetActionAt(EncoderPos(mut.Encoder, mut.Direction), mut.Layer, mut.Action)
	case MutDefaultLayer:
		if int(mut.Layer) >= km.NumLayers() {
			log.Warnf("mutation: default layer %d out of range: %v", mut.Layer, ErrMutationRejected)
			return ErrMutationRejected
		}
		km.SetDefaultLayer(mut.Layer)
	case MutMorseHoldTimeout:
		if mut.Ms == 0 || mut.Ms > 0xFFFF {
			return rejectMs("morse hold timeout", mut.Ms)
		}
		b.Morse.DefaultProfile.HoldTimeoutMs = uint16(mut.Ms)
	case MutMorseGapTimeout:
		if mut.Ms == 0 || mut.Ms > 0xFFFF {
			return rejectMs("morse gap timeout", mut.Ms)
		}
		b.Morse.DefaultProfile.GapTimeoutMs = uint16(mut.Ms)
	case MutComboTimeout:
		if mut.Ms == 0 {
			return rejectMs("combo timeout", mut.Ms)
		}
		b.Combo.TimeoutMs = mut.Ms
	case MutOneShotTimeout:
		if mut.Ms == 0 {
			return rejectMs("one-shot timeout", mut.Ms)
		}
		b.OneShot.TimeoutMs = mut.Ms
	case MutCombosReplace:
		if len(mut.Combos) > ComboMaxNum {
			log.Warnf("mutation: %d combos, max %d: %v", len(mut.Combos), ComboMaxNum, ErrMutationRejected)
			return ErrMutationRejected
		}
		for i := range mut.Combos {
			if n := len(mut.Combos[i].Triggers); n < 2 || n > ComboMaxLength {
				log.Warnf("mutation: combo %d has %d triggers: %v", i, n, ErrMutationRejected)
				return ErrMutationRejected
			}
		}
		sort.SliceStable(mut.Combos, func(i, j int) bool {
			return len(mut.Combos[i].Triggers) > len(mut.Combos[j].Triggers)
		})
		b.Combo.Combos = mut.Combos
	case MutForksReplace:
		if len(mut.Forks) > ForkMaxNum {
			log.Warnf("mutation: %d forks, max %d: %v", len(mut.Forks), ForkMaxNum, ErrMutationRejected)
			return ErrMutationRejected
		}
		b.Fork.Forks = mut.Forks
	case MutMorsesReplace:
		if len(mut.Morses) > MorseMaxNum {
			log.Warnf("mutation: %d morse entries, max %d: %v", len(mut.Morses), MorseMaxNum, ErrMutationRejected)
			return ErrMutationRejected
		}
		b.Morse.Entries = mut.Morses
	case MutMacrosReplace:
		if len(mut.Space) > MacroSpaceSize {
			log.Warnf("mutation: macro space %d bytes, max %d: %v", len(mut.Space), MacroSpaceSize, ErrMutationRejected)
			return ErrMutationRejected
		}
		b.Macro.Space = mut.Space
	default:
		log.Warnf("mutation: unknown kind %d: %v", mut.Kind, ErrMutationRejected)
		return ErrMutationRejected
	}
	return nil
}

func rejectMs(what string, ms uint64) error {
	log.Warnf("mutation: %s %dms out of range: %v", what, ms, ErrMutationRejected)
	return ErrMutationRejected
}
