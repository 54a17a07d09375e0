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

// Package layout loads a configuration snapshot from TOML.  Keymap
// cells are written as the protocol's 16-bit keycodes, so the file
// format needs no action grammar of its own and anything a host can
// write is also expressible in the file.
package layout

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cadencekb/cadence"
	"github.com/cadencekb/cadence/via"
)

// Layer is one layer of keymap cells, row-major.
type Layer struct {
	Keys [][]uint16 `toml:"keys"`
	// Encoders are [clockwise, counter-clockwise] keycode pairs.
	Encoders [][2]uint16 `toml:"encoders"`
}

// ComboDef is one combo in the file.
type ComboDef struct {
	Triggers []uint16 `toml:"triggers"`
	Output   uint16   `toml:"output"`
	// Layer scopes the combo; -1 means every layer.
	Layer int `toml:"layer"`
}

// ForkDef is one fork in the file.
type ForkDef struct {
	Trigger       uint16 `toml:"trigger"`
	Negative      uint16 `toml:"negative"`
	Positive      uint16 `toml:"positive"`
	MatchAny      uint8  `toml:"match_any_modifiers"`
	MatchNone     uint8  `toml:"match_none_modifiers"`
	KeptModifiers uint8  `toml:"kept_modifiers"`
	Bindable      bool   `toml:"bindable"`
}

// MorseDef is one morse table entry in the file.
type MorseDef struct {
	Mode          string   `toml:"mode"`
	UnilateralTap *bool    `toml:"unilateral_tap"`
	HoldTimeoutMs uint16   `toml:"hold_timeout_ms"`
	GapTimeoutMs  uint16   `toml:"gap_timeout_ms"`
	TapActions    []uint16 `toml:"tap_actions"`
	HoldActions   []uint16 `toml:"hold_actions"`
	// Patterns maps a dot-dash string ("." short, "-" long) to a keycode.
	Patterns map[string]uint16 `toml:"patterns"`
}

// Behavior mirrors the tunable sections.
type Behavior struct {
	TriLayer *struct {
		Lower  uint8 `toml:"lower"`
		Upper  uint8 `toml:"upper"`
		Adjust uint8 `toml:"adjust"`
	} `toml:"tri_layer"`
	OneShot struct {
		TimeoutMs          uint64 `toml:"timeout_ms"`
		ActivateOnKeypress bool   `toml:"activate_on_keypress"`
		SendOnSecondPress  bool   `toml:"send_on_second_press"`
	} `toml:"one_shot"`
	ComboTimeoutMs uint64     `toml:"combo_timeout_ms"`
	Combos         []ComboDef `toml:"combos"`
	Forks          []ForkDef  `toml:"forks"`
	Morse          struct {
		Mode          string `toml:"mode"`
		ChordalHold   bool   `toml:"chordal_hold"`
		UnilateralTap bool   `toml:"unilateral_tap"`
		HoldTimeoutMs uint16 `toml:"hold_timeout_ms"`
		GapTimeoutMs  uint16 `toml:"gap_timeout_ms"`
	} `toml:"morse"`
	Morses []MorseDef `toml:"morses"`
	Mouse  struct {
		KeyIntervalMs   uint64 `toml:"key_interval_ms"`
		WheelIntervalMs uint64 `toml:"wheel_interval_ms"`
		InitialSpeed    int8   `toml:"initial_speed"`
		MaxSpeed        int8   `toml:"max_speed"`
		AccelSteps      uint8  `toml:"accel_steps"`
		WheelSpeed      int8   `toml:"wheel_speed"`
	} `toml:"mouse"`
}

// File is the top-level document.
type File struct {
	Rows         uint8 `toml:"rows"`
	Cols         uint8 `toml:"cols"`
	DefaultLayer uint8 `toml:"default_layer"`
	Nkro         bool  `toml:"nkro"`

	Layers []Layer `toml:"layers"`
	// Hands is a row-major map of "L"/"R"/"" for chordal hold.
	Hands [][]string `toml:"hands"`

	Behavior Behavior `toml:"behavior"`
}

// Load reads and converts a snapshot from path.
func Load(path string) (*cadence.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse converts TOML bytes into a validated snapshot.
func Parse(data []byte) (*cadence.Snapshot, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return f.Snapshot()
}

func modeOf(s string) cadence.MorseMode {
	switch s {
	case "normal":
		return cadence.MorseModeNormal
	case "permissive_hold":
		return cadence.MorseModePermissiveHold
	case "hold_on_other_press":
		return cadence.MorseModeHoldOnOtherPress
	}
	return cadence.MorseModeUnset
}

// Snapshot converts the parsed file, then validates it.
func (f *File) Snapshot() (*cadence.Snapshot, error) {
	snap := &cadence.Snapshot{
		Rows:         f.Rows,
		Cols:         f.Cols,
		DefaultLayer: f.DefaultLayer,
		Nkro:         f.Nkro,
		Behavior:     cadence.DefaultBehavior(),
	}

	for _, layer := range f.Layers {
		rows := make([][]cadence.KeyAction, len(layer.Keys))
		for r, cols := range layer.Keys {
			rows[r] = make([]cadence.KeyAction, len(cols))
			for c, code := range cols {
				rows[r][c] = via.FromViaKeycode(code)
			}
		}
		snap.Layers = append(snap.Layers, rows)
		if len(layer.Encoders) > 0 {
			encs := make([]cadence.EncoderAction, len(layer.Encoders))
			for i, pair := range layer.Encoders {
				encs[i] = cadence.EncoderAction{
					Clockwise:        via.FromViaKeycode(pair[0]),
					CounterClockwise: via.FromViaKeycode(pair[1]),
				}
			}
			snap.Encoders = append(snap.Encoders, encs)
		}
	}

	if len(f.Hands) > 0 {
		snap.Hands = make([][]cadence.Hand, len(f.Hands))
		for r, row := range f.Hands {
			snap.Hands[r] = make([]cadence.Hand, len(row))
			for c, h := range row {
				switch h {
				case "L", "l":
					snap.Hands[r][c] = cadence.HandLeft
				case "R", "r":
					snap.Hands[r][c] = cadence.HandRight
				}
			}
		}
	}

	b := &snap.Behavior
	bf := &f.Behavior
	if bf.TriLayer != nil {
		b.TriLayer = &cadence.TriLayerConfig{Lower: bf.TriLayer.Lower, Upper: bf.TriLayer.Upper, Adjust: bf.TriLayer.Adjust}
	}
	if bf.OneShot.TimeoutMs != 0 {
		b.OneShot.TimeoutMs = bf.OneShot.TimeoutMs
	}
	b.OneShot.ActivateOnKeypress = bf.OneShot.ActivateOnKeypress
	b.OneShot.SendOnSecondPress = bf.OneShot.SendOnSecondPress
	if bf.ComboTimeoutMs != 0 {
		b.Combo.TimeoutMs = bf.ComboTimeoutMs
	}
	for _, cd := range bf.Combos {
		var triggers []cadence.KeyAction
		for _, t := range cd.Triggers {
			triggers = append(triggers, via.FromViaKeycode(t))
		}
		var layer *uint8
		if cd.Layer >= 0 {
			l := uint8(cd.Layer)
			layer = &l
		}
		b.Combo.Combos = append(b.Combo.Combos, cadence.NewCombo(triggers, via.FromViaKeycode(cd.Output), layer))
	}
	for _, fd := range bf.Forks {
		b.Fork.Forks = append(b.Fork.Forks, cadence.Fork{
			Trigger:       via.FromViaKeycode(fd.Trigger),
			Negative:      singleAction(fd.Negative),
			Positive:      singleAction(fd.Positive),
			MatchAny:      cadence.StateBits{Modifiers: cadence.ModifiersFromBits(fd.MatchAny)},
			MatchNone:     cadence.StateBits{Modifiers: cadence.ModifiersFromBits(fd.MatchNone)},
			KeptModifiers: cadence.ModifiersFromBits(fd.KeptModifiers),
			Bindable:      fd.Bindable,
		})
	}

	if m := modeOf(bf.Morse.Mode); m != cadence.MorseModeUnset {
		b.Morse.DefaultProfile.Mode = m
	}
	b.Morse.ChordalHold = bf.Morse.ChordalHold
	if bf.Morse.UnilateralTap {
		b.Morse.DefaultProfile.UnilateralTap = cadence.OptTrue
	}
	if bf.Morse.HoldTimeoutMs != 0 {
		b.Morse.DefaultProfile.HoldTimeoutMs = bf.Morse.HoldTimeoutMs
	}
	if bf.Morse.GapTimeoutMs != 0 {
		b.Morse.DefaultProfile.GapTimeoutMs = bf.Morse.GapTimeoutMs
	}
	for _, md := range bf.Morses {
		entry := cadence.MorseEntry{
			Profile: cadence.MorseProfile{
				Mode:          modeOf(md.Mode),
				HoldTimeoutMs: md.HoldTimeoutMs,
				GapTimeoutMs:  md.GapTimeoutMs,
			},
		}
		if md.UnilateralTap != nil {
			if *md.UnilateralTap {
				entry.Profile.UnilateralTap = cadence.OptTrue
			} else {
				entry.Profile.UnilateralTap = cadence.OptFalse
			}
		}
		for _, t := range md.TapActions {
			entry.TapActions = append(entry.TapActions, singleAction(t))
		}
		for _, h := range md.HoldActions {
			entry.HoldActions = append(entry.HoldActions, singleAction(h))
		}
		if len(md.Patterns) > 0 {
			entry.PatternActions = make(map[cadence.MorsePattern]cadence.Action, len(md.Patterns))
			for pat, code := range md.Patterns {
				p, err := parsePattern(pat)
				if err != nil {
					return nil, err
				}
				entry.PatternActions[p] = singleAction(code)
			}
		}
		b.Morse.Entries = append(b.Morse.Entries, entry)
	}

	if bf.Mouse.KeyIntervalMs != 0 {
		b.Mouse.KeyIntervalMs = bf.Mouse.KeyIntervalMs
	}
	if bf.Mouse.WheelIntervalMs != 0 {
		b.Mouse.WheelIntervalMs = bf.Mouse.WheelIntervalMs
	}
	if bf.Mouse.InitialSpeed != 0 {
		b.Mouse.InitialSpeed = bf.Mouse.InitialSpeed
	}
	if bf.Mouse.MaxSpeed != 0 {
		b.Mouse.MaxSpeed = bf.Mouse.MaxSpeed
	}
	if bf.Mouse.AccelSteps != 0 {
		b.Mouse.AccelSteps = bf.Mouse.AccelSteps
	}
	if bf.Mouse.WheelSpeed != 0 {
		b.Mouse.WheelSpeed = bf.Mouse.WheelSpeed
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// parsePattern reads a dot-dash string: "." is a short tap, "-" a
// long one, so ".-" is dit dah.
func parsePattern(s string) (cadence.MorsePattern, error) {
	p := cadence.EmptyPattern
	for _, ch := range s {
		switch ch {
		case '.':
			p = p.Append(false)
		case '-':
			p = p.Append(true)
		default:
			return 0, fmt.Errorf("layout: bad morse pattern %q", s)
		}
	}
	if p == cadence.EmptyPattern {
		return 0, fmt.Errorf("layout: empty morse pattern")
	}
	return p, nil
}

// singleAction unwraps a via keycode that must denote a plain action.
func singleAction(code uint16) cadence.Action {
	ka := via.FromViaKeycode(code)
	if ka.Kind == cadence.KeyActionSingle {
		return ka.Action
	}
	return cadence.NoAct
}
