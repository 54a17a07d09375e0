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

// Package via converts between key actions and the 16-bit keycodes the
// Vial/Via host protocol speaks on the wire.
package via

import (
	log "github.com/sirupsen/logrus"

	"github.com/cadencekb/cadence"
)

// pack5 folds an 8-bit modifier combination into the protocol's 5-bit
// form: bit 4 selects the right-hand side, bits 0-3 are
// ctrl/shift/alt/gui.  Mixed-side combinations fold onto the right.
func pack5(m cadence.ModifierCombination) uint16 {
	bits := m.Bits()
	if bits&0xF0 != 0 {
		return 0x10 | uint16(bits>>4)
	}
	return uint16(bits & 0x0F)
}

// unpack5 is the inverse of pack5.
func unpack5(v uint16) cadence.ModifierCombination {
	nib := uint8(v & 0x0F)
	if v&0x10 != 0 {
		return cadence.ModifiersFromBits(nib << 4)
	}
	return cadence.ModifiersFromBits(nib)
}

// ToViaKeycode maps a key action to its wire keycode.  Actions the
// protocol cannot express map to 0x0000.
func ToViaKeycode(ka cadence.KeyAction) uint16 {
	switch ka.Kind {
	case cadence.KeyActionNo:
		return 0x0000
	case cadence.KeyActionTransparent:
		return 0x0001

	case cadence.KeyActionSingle:
		a := ka.Action
		switch a.Kind {
		case cadence.ActionKey:
			if a.Key.Page != cadence.PageBasic {
				return 0x0000
			}
			return a.Key.Code
		case cadence.ActionKeyWithModifier:
			if a.Key.Page != cadence.PageBasic {
				return 0x0000
			}
			return pack5(a.Mod)<<8 | a.Key.Code
		case cadence.ActionLayerToggleOnly:
			return 0x5200 | uint16(a.Layer)
		case cadence.ActionLayerOn:
			return 0x5220 | uint16(a.Layer)
		case cadence.ActionDefaultLayer:
			return 0x5240 | uint16(a.Layer)
		case cadence.ActionLayerToggle:
			return 0x5260 | uint16(a.Layer)
		case cadence.ActionOneShotLayer:
			if a.Layer < 16 {
				return 0x5280 | uint16(a.Layer)
			}
			return 0x0000
		case cadence.ActionOneShotModifier:
			return 0x52A0 | pack5(a.Mod)
		case cadence.ActionLayerOnWithModifier:
			if a.Layer < 16 {
				return 0x5000 | uint16(a.Layer)<<5 | (pack5(a.Mod) & 0x1F)
			}
			return 0x0000
		case cadence.ActionTriggerMacro:
			return 0x7700 + uint16(a.Macro)
		case cadence.ActionTriLayerLower:
			return 0x7C77
		case cadence.ActionTriLayerUpper:
			return 0x7C78
		}
		return 0x0000

	case cadence.KeyActionTapHold:
		tapCode := uint16(0)
		if ka.Tap.Kind == cadence.ActionKey && ka.Tap.Key.Page == cadence.PageBasic {
			tapCode = ka.Tap.Key.Code
		}
		switch ka.Hold.Kind {
		case cadence.ActionModifier:
			return 0x2000 | pack5(ka.Hold.Mod)<<8 | tapCode
		case cadence.ActionLayerOn:
			if ka.Hold.Layer > 15 {
				return 0x0000
			}
			return 0x4000 | uint16(ka.Hold.Layer)<<8 | tapCode
		}
		return 0x0000

	case cadence.KeyActionMorse:
		return 0x5700 | uint16(ka.Morse)
	}
	return 0x0000
}

// FromViaKeycode maps a wire keycode back to a key action.  Unknown
// ranges decode to No with a warning, leaving the keymap unchanged
// when a host writes something this build does not support.
func FromViaKeycode(v uint16) cadence.KeyAction {
	switch {
	case v == 0x0000:
		return cadence.NoKey
	case v == 0x0001:
		return cadence.TransparentKey
	case v <= 0x00FF:
		return cadence.Single(cadence.KC(v))
	case v <= 0x1FFF:
		return cadence.Single(cadence.Action{
			Kind: cadence.ActionKeyWithModifier,
			Key:  cadence.K(v & 0x00FF),
			Mod:  unpack5(v >> 8),
		})
	case v >= 0x2000 && v <= 0x3FFF:
		return cadence.TapHold(cadence.KC(v&0x00FF), cadence.MD(unpack5((v>>8)&0x1F)), cadence.MorseProfile{})
	case v >= 0x4000 && v <= 0x4FFF:
		return cadence.TapHold(cadence.KC(v&0x00FF), cadence.MO(uint8((v>>8)&0x0F)), cadence.MorseProfile{})
	case v >= 0x5000 && v <= 0x51FF:
		return cadence.Single(cadence.LM(uint8((v>>5)&0x0F), unpack5(v&0x1F)))
	case v >= 0x5200 && v <= 0x521F:
		return cadence.Single(cadence.TO(uint8(v & 0x0F)))
	case v >= 0x5220 && v <= 0x523F:
		return cadence.Single(cadence.MO(uint8(v & 0x0F)))
	case v >= 0x5240 && v <= 0x525F:
		return cadence.Single(cadence.DF(uint8(v & 0x0F)))
	case v >= 0x5260 && v <= 0x527F:
		return cadence.Single(cadence.TG(uint8(v & 0x0F)))
	case v >= 0x5280 && v <= 0x529F:
		return cadence.Single(cadence.OSL(uint8(v & 0x0F)))
	case v >= 0x52A0 && v <= 0x52BF:
		return cadence.Single(cadence.OSM(unpack5(v & 0x1F)))
	case v >= 0x5700 && v <= 0x57FF:
		return cadence.MorseKey(uint8(v & 0xFF))
	case v >= 0x7700 && v <= 0x771F:
		return cadence.Single(cadence.MacroTrigger(uint8(v & 0x1F)))
	case v == 0x7C77:
		return cadence.Single(cadence.TriLayerLower)
	case v == 0x7C78:
		return cadence.Single(cadence.TriLayerUpper)
	}
	log.Warnf("via: keycode %#04x not supported", v)
	return cadence.NoKey
}
