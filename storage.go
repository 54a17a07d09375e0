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
	"errors"
	"fmt"
	"sort"
)

// The storage layer itself (a flash-backed journal) is an external
// collaborator; this file defines only the entry layout it persists:
// tagged keys, stable field order, and bounded value sizes.

// ErrStorageDecode indicates a malformed persisted value.
var ErrStorageDecode = errors.New("storage decode")

// StorageKeyKind tags the persisted entry families.
type StorageKeyKind uint8

const (
	StorageKeymapKey StorageKeyKind = iota
	StorageEncoder
	StorageCombo
	StorageMorse
	StorageFork
	StorageLayoutConfig
	StorageBehaviorTimeouts
	StorageBondInfo
)

// StorageKey identifies one persisted entry.
type StorageKey struct {
	Kind StorageKeyKind

	Layer, Row, Col uint8 // StorageKeymapKey
	Encoder         uint8 // StorageEncoder
	Index           uint8 // StorageCombo / StorageMorse / StorageFork / StorageBondInfo
}

// Maximum encoded value sizes, so journal slots can be statically
// allocated.
const (
	ActionMaxSize     = 5
	KeyActionMaxSize  = 1 + 2*ActionMaxSize + 6 // TapHold: tag, tap, hold, profile
	ComboMaxSize      = 2 + (ComboMaxLength+1)*KeyActionMaxSize + 2
	ForkMaxSize       = 1 + KeyActionMaxSize + 2*ActionMaxSize + 8
	MorseEntryMaxSize = 7 + 2*MorseMaxPatterns*ActionMaxSize + 2 + MorseMaxPatterns*(2+ActionMaxSize)
)

// Encode packs the key to its wire form: kind tag plus the
// discriminating indices.
func (k StorageKey) Encode() []byte {
	switch k.Kind {
	case StorageKeymapKey:
		return []byte{byte(k.Kind), k.Layer, k.Row, k.Col}
	case StorageEncoder:
		return []byte{byte(k.Kind), k.Layer, k.Encoder}
	case StorageCombo, StorageMorse, StorageFork, StorageBondInfo:
		return []byte{byte(k.Kind), k.Index}
	}
	return []byte{byte(k.Kind)}
}

// DecodeStorageKey is the inverse of StorageKey.Encode.
func DecodeStorageKey(b []byte) (StorageKey, error) {
	if len(b) == 0 {
		return StorageKey{}, fmt.Errorf("%w: empty key", ErrStorageDecode)
	}
	k := StorageKey{Kind: StorageKeyKind(b[0])}
	switch k.Kind {
	case StorageKeymapKey:
		if len(b) != 4 {
			return StorageKey{}, fmt.Errorf("%w: keymap key length %d", ErrStorageDecode, len(b))
		}
		k.Layer, k.Row, k.Col = b[1], b[2], b[3]
	case StorageEncoder:
		if len(b) != 3 {
			return StorageKey{}, fmt.Errorf("%w: encoder key length %d", ErrStorageDecode, len(b))
		}
		k.Layer, k.Encoder = b[1], b[2]
	case StorageCombo, StorageMorse, StorageFork, StorageBondInfo:
		if len(b) != 2 {
			return StorageKey{}, fmt.Errorf("%w: indexed key length %d", ErrStorageDecode, len(b))
		}
		k.Index = b[1]
	case StorageLayoutConfig, StorageBehaviorTimeouts:
		if len(b) != 1 {
			return StorageKey{}, fmt.Errorf("%w: config key length %d", ErrStorageDecode, len(b))
		}
	default:
		return StorageKey{}, fmt.Errorf("%w: unknown key kind %d", ErrStorageDecode, b[0])
	}
	return k, nil
}

// AppendAction encodes an Action with stable field order.
func AppendAction(b []byte, a Action) []byte {
	b = append(b, byte(a.Kind))
	switch a.Kind {
	case ActionKey:
		b = append(b, byte(a.Key.Page), byte(a.Key.Code), byte(a.Key.Code>>8))
	case ActionModifier, ActionOneShotModifier:
		b = append(b, a.Mod.Bits())
	case ActionKeyWithModifier:
		b = append(b, byte(a.Key.Page), byte(a.Key.Code), byte(a.Key.Code>>8), a.Mod.Bits())
	case ActionLayerOn, ActionLayerOff, ActionLayerToggle, ActionLayerToggleOnly,
		ActionDefaultLayer, ActionOneShotLayer:
		b = append(b, a.Layer)
	case ActionLayerOnWithModifier:
		b = append(b, a.Layer, a.Mod.Bits())
	case ActionTriggerMacro:
		b = append(b, a.Macro)
	}
	return b
}

// DecodeAction is the inverse of AppendAction; it returns the decoded
// action and the bytes consumed.
func DecodeAction(b []byte) (Action, int, error) {
	if len(b) == 0 {
		return Action{}, 0, fmt.Errorf("%w: empty action", ErrStorageDecode)
	}
	a := Action{Kind: ActionKind(b[0])}
	n := 1
	need := func(k int) error {
		if len(b) < n+k {
			return fmt.Errorf("%w: short action", ErrStorageDecode)
		}
		return nil
	}
	switch a.Kind {
	case ActionNo, ActionTransparent, ActionTriLayerLower, ActionTriLayerUpper:
	case ActionKey:
		if err := need(3); err != nil {
			return Action{}, 0, err
		}
		a.Key = Keycode{Page: Page(b[n]), Code: uint16(b[n+1]) | uint16(b[n+2])<<8}
		n += 3
	case ActionModifier, ActionOneShotModifier:
		if err := need(1); err != nil {
			return Action{}, 0, err
		}
		a.Mod = ModifiersFromBits(b[n])
		n++
	case ActionKeyWithModifier:
		if err := need(4); err != nil {
			return Action{}, 0, err
		}
		a.Key = Keycode{Page: Page(b[n]), Code: uint16(b[n+1]) | uint16(b[n+2])<<8}
		a.Mod = ModifiersFromBits(b[n+3])
		n += 4
	case ActionLayerOn, ActionLayerOff, ActionLayerToggle, ActionLayerToggleOnly,
		ActionDefaultLayer, ActionOneShotLayer:
		if err := need(1); err != nil {
			return Action{}, 0, err
		}
		a.Layer = b[n]
		n++
	case ActionLayerOnWithModifier:
		if err := need(2); err != nil {
			return Action{}, 0, err
		}
		a.Layer = b[n]
		a.Mod = ModifiersFromBits(b[n+1])
		n += 2
	case ActionTriggerMacro:
		if err := need(1); err != nil {
			return Action{}, 0, err
		}
		a.Macro = b[n]
		n++
	default:
		return Action{}, 0, fmt.Errorf("%w: unknown action kind %d", ErrStorageDecode, b[0])
	}
	return a, n, nil
}

// AppendKeyAction encodes a KeyAction.
func AppendKeyAction(b []byte, ka KeyAction) []byte {
	b = append(b, byte(ka.Kind))
	switch ka.Kind {
	case KeyActionSingle:
		b = AppendAction(b, ka.Action)
	case KeyActionTapHold:
		b = AppendAction(b, ka.Tap)
		b = AppendAction(b, ka.Hold)
		b = append(b, byte(ka.Profile.Mode), byte(ka.Profile.UnilateralTap),
			byte(ka.Profile.HoldTimeoutMs), byte(ka.Profile.HoldTimeoutMs>>8),
			byte(ka.Profile.GapTimeoutMs), byte(ka.Profile.GapTimeoutMs>>8))
	case KeyActionMorse:
		b = append(b, ka.Morse)
	}
	return b
}

// DecodeKeyAction is the inverse of AppendKeyAction.
func DecodeKeyAction(b []byte) (KeyAction, int, error) {
	if len(b) == 0 {
		return KeyAction{}, 0, fmt.Errorf("%w: empty key action", ErrStorageDecode)
	}
	ka := KeyAction{Kind: KeyActionKind(b[0])}
	n := 1
	switch ka.Kind {
	case KeyActionNo, KeyActionTransparent:
	case KeyActionSingle:
		a, an, err := DecodeAction(b[n:])
		if err != nil {
			return KeyAction{}, 0, err
		}
		ka.Action = a
		n += an
	case KeyActionTapHold:
		tap, tn, err := DecodeAction(b[n:])
		if err != nil {
			return KeyAction{}, 0, err
		}
		n += tn
		hold, hn, err := DecodeAction(b[n:])
		if err != nil {
			return KeyAction{}, 0, err
		}
		n += hn
		if len(b) < n+6 {
			return KeyAction{}, 0, fmt.Errorf("%w: short profile", ErrStorageDecode)
		}
		ka.Tap, ka.Hold = tap, hold
		ka.Profile = MorseProfile{
			Mode:          MorseMode(b[n]),
			UnilateralTap: OptBool(b[n+1]),
			HoldTimeoutMs: uint16(b[n+2]) | uint16(b[n+3])<<8,
			GapTimeoutMs:  uint16(b[n+4]) | uint16(b[n+5])<<8,
		}
		n += 6
	case KeyActionMorse:
		if len(b) < n+1 {
			return KeyAction{}, 0, fmt.Errorf("%w: short morse index", ErrStorageDecode)
		}
		ka.Morse = b[n]
		n++
	default:
		return KeyAction{}, 0, fmt.Errorf("%w: unknown key action kind %d", ErrStorageDecode, b[0])
	}
	return ka, n, nil
}

// EncodeCombo packs a combo definition.
func EncodeCombo(c Combo) []byte {
	b := []byte{byte(len(c.Triggers))}
	for _, t := range c.Triggers {
		b = AppendKeyAction(b, t)
	}
	b = AppendKeyAction(b, c.Output)
	if c.Layer != nil {
		b = append(b, 1, *c.Layer)
	} else {
		b = append(b, 0)
	}
	return b
}

// DecodeCombo is the inverse of EncodeCombo.
func DecodeCombo(b []byte) (Combo, error) {
	if len(b) == 0 {
		return Combo{}, fmt.Errorf("%w: empty combo", ErrStorageDecode)
	}
	count := int(b[0])
	if count > ComboMaxLength {
		return Combo{}, fmt.Errorf("%w: combo with %d triggers", ErrStorageDecode, count)
	}
	n := 1
	var c Combo
	for i := 0; i < count; i++ {
		ka, kn, err := DecodeKeyAction(b[n:])
		if err != nil {
			return Combo{}, err
		}
		c.Triggers = append(c.Triggers, ka)
		n += kn
	}
	out, on, err := DecodeKeyAction(b[n:])
	if err != nil {
		return Combo{}, err
	}
	c.Output = out
	n += on
	if len(b) < n+1 {
		return Combo{}, fmt.Errorf("%w: short combo layer", ErrStorageDecode)
	}
	if b[n] == 1 {
		if len(b) < n+2 {
			return Combo{}, fmt.Errorf("%w: short combo layer", ErrStorageDecode)
		}
		l := b[n+1]
		c.Layer = &l
	}
	return c, nil
}

// EncodeFork packs a fork definition.
func EncodeFork(f Fork) []byte {
	var b []byte
	b = AppendKeyAction(b, f.Trigger)
	b = AppendAction(b, f.Negative)
	b = AppendAction(b, f.Positive)
	b = append(b,
		f.MatchAny.Modifiers.Bits(), f.MatchAny.Leds, f.MatchAny.Mouse,
		f.MatchNone.Modifiers.Bits(), f.MatchNone.Leds, f.MatchNone.Mouse,
		f.KeptModifiers.Bits())
	if f.Bindable {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	return b
}

// DecodeFork is the inverse of EncodeFork.
func DecodeFork(b []byte) (Fork, error) {
	var f Fork
	trig, n, err := DecodeKeyAction(b)
	if err != nil {
		return Fork{}, err
	}
	f.Trigger = trig
	neg, nn, err := DecodeAction(b[n:])
	if err != nil {
		return Fork{}, err
	}
	n += nn
	pos, pn, err := DecodeAction(b[n:])
	if err != nil {
		return Fork{}, err
	}
	n += pn
	if len(b) < n+8 {
		return Fork{}, fmt.Errorf("%w: short fork", ErrStorageDecode)
	}
	f.Negative, f.Positive = neg, pos
	f.MatchAny = StateBits{Modifiers: ModifiersFromBits(b[n]), Leds: b[n+1], Mouse: b[n+2]}
	f.MatchNone = StateBits{Modifiers: ModifiersFromBits(b[n+3]), Leds: b[n+4], Mouse: b[n+5]}
	f.KeptModifiers = ModifiersFromBits(b[n+6])
	f.Bindable = b[n+7] == 1
	return f, nil
}

// EncodeMorseEntry packs a morse table entry.  Pattern actions are
// written sorted by pattern so the encoding is stable.
func EncodeMorseEntry(e MorseEntry) []byte {
	b := []byte{
		byte(e.Profile.Mode), byte(e.Profile.UnilateralTap),
		byte(e.Profile.HoldTimeoutMs), byte(e.Profile.HoldTimeoutMs >> 8),
		byte(e.Profile.GapTimeoutMs), byte(e.Profile.GapTimeoutMs >> 8),
	}
	b = append(b, byte(len(e.TapActions)))
	for _, a := range e.TapActions {
		b = AppendAction(b, a)
	}
	b = append(b, byte(len(e.HoldActions)))
	for _, a := range e.HoldActions {
		b = AppendAction(b, a)
	}
	pats := make([]MorsePattern, 0, len(e.PatternActions))
	for p := range e.PatternActions {
		pats = append(pats, p)
	}
	sort.Slice(pats, func(i, j int) bool { return pats[i] < pats[j] })
	b = append(b, byte(len(pats)))
	for _, p := range pats {
		b = append(b, byte(p), byte(p>>8))
		b = AppendAction(b, e.PatternActions[p])
	}
	return b
}

// DecodeMorseEntry is the inverse of EncodeMorseEntry.
func DecodeMorseEntry(b []byte) (MorseEntry, error) {
	if len(b) < 7 {
		return MorseEntry{}, fmt.Errorf("%w: short morse entry", ErrStorageDecode)
	}
	e := MorseEntry{Profile: MorseProfile{
		Mode:          MorseMode(b[0]),
		UnilateralTap: OptBool(b[1]),
		HoldTimeoutMs: uint16(b[2]) | uint16(b[3])<<8,
		GapTimeoutMs:  uint16(b[4]) | uint16(b[5])<<8,
	}}
	n := 6
	readActions := func() ([]Action, error) {
		if len(b) < n+1 {
			return nil, fmt.Errorf("%w: short morse actions", ErrStorageDecode)
		}
		count := int(b[n])
		n++
		if count > MorseMaxPatterns {
			return nil, fmt.Errorf("%w: %d morse actions", ErrStorageDecode, count)
		}
		var out []Action
		for i := 0; i < count; i++ {
			a, an, err := DecodeAction(b[n:])
			if err != nil {
				return nil, err
			}
			out = append(out, a)
			n += an
		}
		return out, nil
	}
	var err error
	if e.TapActions, err = readActions(); err != nil {
		return MorseEntry{}, err
	}
	if e.HoldActions, err = readActions(); err != nil {
		return MorseEntry{}, err
	}
	if len(b) < n+1 {
		return MorseEntry{}, fmt.Errorf("%w: short pattern table", ErrStorageDecode)
	}
	count := int(b[n])
	n++
	if count > 0 {
		e.PatternActions = make(map[MorsePattern]Action, count)
	}
	for i := 0; i < count; i++ {
		if len(b) < n+2 {
			return MorseEntry{}, fmt.Errorf("%w: short pattern", ErrStorageDecode)
		}
		p := MorsePattern(uint16(b[n]) | uint16(b[n+1])<<8)
		n += 2
		a, an, err := DecodeAction(b[n:])
		if err != nil {
			return MorseEntry{}, err
		}
		n += an
		e.PatternActions[p] = a
	}
	return e, nil
}

// BehaviorTimeouts is the persisted timeout bundle.
type BehaviorTimeouts struct {
	HoldTimeoutMs    uint16
	GapTimeoutMs     uint16
	ComboTimeoutMs   uint16
	OneShotTimeoutMs uint16
}

// Encode packs the timeouts little-endian in field order.
func (t BehaviorTimeouts) Encode() []byte {
	return []byte{
		byte(t.HoldTimeoutMs), byte(t.HoldTimeoutMs >> 8),
		byte(t.GapTimeoutMs), byte(t.GapTimeoutMs >> 8),
		byte(t.ComboTimeoutMs), byte(t.ComboTimeoutMs >> 8),
		byte(t.OneShotTimeoutMs), byte(t.OneShotTimeoutMs >> 8),
	}
}

// DecodeBehaviorTimeouts is the inverse of BehaviorTimeouts.Encode.
func DecodeBehaviorTimeouts(b []byte) (BehaviorTimeouts, error) {
	if len(b) != 8 {
		return BehaviorTimeouts{}, fmt.Errorf("%w: timeouts length %d", ErrStorageDecode, len(b))
	}
	return BehaviorTimeouts{
		HoldTimeoutMs:    uint16(b[0]) | uint16(b[1])<<8,
		GapTimeoutMs:     uint16(b[2]) | uint16(b[3])<<8,
		ComboTimeoutMs:   uint16(b[4]) | uint16(b[5])<<8,
		OneShotTimeoutMs: uint16(b[6]) | uint16(b[7])<<8,
	}, nil
}

// LayoutConfig is the persisted default-layer/layout-option pair.
type LayoutConfig struct {
	DefaultLayer uint8
	LayoutOption uint32
}

// Encode packs the layout config.
func (l LayoutConfig) Encode() []byte {
	return []byte{l.DefaultLayer,
		byte(l.LayoutOption), byte(l.LayoutOption >> 8),
		byte(l.LayoutOption >> 16), byte(l.LayoutOption >> 24)}
}

// DecodeLayoutConfig is the inverse of LayoutConfig.Encode.
func DecodeLayoutConfig(b []byte) (LayoutConfig, error) {
	if len(b) != 5 {
		return LayoutConfig{}, fmt.Errorf("%w: layout config length %d", ErrStorageDecode, len(b))
	}
	return LayoutConfig{
		DefaultLayer: b[0],
		LayoutOption: uint32(b[1]) | uint32(b[2])<<8 | uint32(b[3])<<16 | uint32(b[4])<<24,
	}, nil
}
