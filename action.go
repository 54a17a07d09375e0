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

import "fmt"

// ActionKind discriminates the Action variants.
type ActionKind uint8

const (
	ActionNo ActionKind = iota
	ActionTransparent
	ActionKey
	ActionModifier
	ActionKeyWithModifier
	ActionLayerOn
	ActionLayerOff
	ActionLayerToggle
	ActionLayerToggleOnly
	ActionDefaultLayer
	ActionLayerOnWithModifier
	ActionOneShotModifier
	ActionOneShotLayer
	ActionTriggerMacro
	ActionTriLayerLower
	ActionTriLayerUpper
)

// Action is a single resolved key behavior.  It is a tagged value; only
// the fields relevant to Kind are meaningful.  Actions compare with ==,
// which the fork resolver relies on.
type Action struct {
	Kind  ActionKind
	Key   Keycode
	Mod   ModifierCombination
	Layer uint8
	Macro uint8
}

// NoAct is the do-nothing action.
var NoAct = Action{Kind: ActionNo}

// Transparent falls through to the next active layer.
var Transparent = Action{Kind: ActionTransparent}

// KC returns a basic-page key action.
func KC(code uint16) Action {
	return Action{Kind: ActionKey, Key: K(code)}
}

// KeyAct returns a key action for an arbitrary Keycode.
func KeyAct(k Keycode) Action {
	return Action{Kind: ActionKey, Key: k}
}

// MD returns a bare modifier action.
func MD(m ModifierCombination) Action {
	return Action{Kind: ActionModifier, Mod: m}
}

// KM returns a key tapped together with a modifier combination.
func KM(code uint16, m ModifierCombination) Action {
	return Action{Kind: ActionKeyWithModifier, Key: K(code), Mod: m}
}

// MO momentarily activates a layer while held.
func MO(layer uint8) Action {
	return Action{Kind: ActionLayerOn, Layer: layer}
}

// LayerOff deactivates a layer.
func LayerOff(layer uint8) Action {
	return Action{Kind: ActionLayerOff, Layer: layer}
}

// TG toggles a layer on press.
func TG(layer uint8) Action {
	return Action{Kind: ActionLayerToggle, Layer: layer}
}

// TO activates a layer and deactivates every other non-default layer.
func TO(layer uint8) Action {
	return Action{Kind: ActionLayerToggleOnly, Layer: layer}
}

// DF sets the default layer.
func DF(layer uint8) Action {
	return Action{Kind: ActionDefaultLayer, Layer: layer}
}

// LM momentarily activates a layer with a modifier combination applied.
func LM(layer uint8, m ModifierCombination) Action {
	return Action{Kind: ActionLayerOnWithModifier, Layer: layer, Mod: m}
}

// OSM latches a one-shot modifier.
func OSM(m ModifierCombination) Action {
	return Action{Kind: ActionOneShotModifier, Mod: m}
}

// OSL latches a one-shot layer.
func OSL(layer uint8) Action {
	return Action{Kind: ActionOneShotLayer, Layer: layer}
}

// MacroTrigger starts execution of a stored macro.
func MacroTrigger(idx uint8) Action {
	return Action{Kind: ActionTriggerMacro, Macro: idx}
}

// TriLayerLower activates the lower leg of the configured tri-layer.
var TriLayerLower = Action{Kind: ActionTriLayerLower}

// TriLayerUpper activates the upper leg of the configured tri-layer.
var TriLayerUpper = Action{Kind: ActionTriLayerUpper}

func (a Action) String() string {
	switch a.Kind {
	case ActionNo:
		return "No"
	case ActionTransparent:
		return "Transparent"
	case ActionKey:
		return a.Key.Name()
	case ActionModifier:
		return "Mod(" + a.Mod.String() + ")"
	case ActionKeyWithModifier:
		return fmt.Sprintf("%s+%s", a.Mod, a.Key.Name())
	case ActionLayerOn:
		return fmt.Sprintf("MO(%d)", a.Layer)
	case ActionLayerOff:
		return fmt.Sprintf("LayerOff(%d)", a.Layer)
	case ActionLayerToggle:
		return fmt.Sprintf("TG(%d)", a.Layer)
	case ActionLayerToggleOnly:
		return fmt.Sprintf("TO(%d)", a.Layer)
	case ActionDefaultLayer:
		return fmt.Sprintf("DF(%d)", a.Layer)
	case ActionLayerOnWithModifier:
		return fmt.Sprintf("LM(%d,%s)", a.Layer, a.Mod)
	case ActionOneShotModifier:
		return fmt.Sprintf("OSM(%s)", a.Mod)
	case ActionOneShotLayer:
		return fmt.Sprintf("OSL(%d)", a.Layer)
	case ActionTriggerMacro:
		return fmt.Sprintf("Macro(%d)", a.Macro)
	case ActionTriLayerLower:
		return "TriLayerLower"
	case ActionTriLayerUpper:
		return "TriLayerUpper"
	}
	return fmt.Sprintf("Action[%d]", a.Kind)
}

// MorseMode selects how a tap-hold or morse key decides between its tap
// and hold outcomes when other keys are pressed during resolution.
type MorseMode uint8

const (
	// MorseModeUnset inherits the default profile's mode.
	MorseModeUnset MorseMode = iota
	// MorseModeNormal resolves only by the key's own timing.
	MorseModeNormal
	// MorseModePermissiveHold resolves to hold when another key is both
	// pressed and released inside our press.
	MorseModePermissiveHold
	// MorseModeHoldOnOtherPress resolves to hold as soon as any other
	// key is pressed.
	MorseModeHoldOnOtherPress
)

// OptBool is a bool that can also be unset, meaning "inherit".
type OptBool uint8

const (
	OptUnset OptBool = iota
	OptFalse
	OptTrue
)

// Get returns the boolean value, falling back to def when unset.
func (o OptBool) Get(def bool) bool {
	switch o {
	case OptTrue:
		return true
	case OptFalse:
		return false
	}
	return def
}

// MorseProfile carries the per-key tap-hold tuning.  Zero values
// inherit from the behavior's default profile.
type MorseProfile struct {
	Mode          MorseMode
	UnilateralTap OptBool
	HoldTimeoutMs uint16
	GapTimeoutMs  uint16
}

// KeyActionKind discriminates the KeyAction variants.
type KeyActionKind uint8

const (
	KeyActionNo KeyActionKind = iota
	KeyActionTransparent
	KeyActionSingle
	KeyActionTapHold
	KeyActionMorse
)

// KeyAction is what a keymap stores at each position.
type KeyAction struct {
	Kind    KeyActionKind
	Action  Action // Single
	Tap     Action // TapHold
	Hold    Action // TapHold
	Profile MorseProfile
	Morse   uint8 // Morse table index
}

// NoKey is the inert key action.
var NoKey = KeyAction{Kind: KeyActionNo}

// TransparentKey falls through to lower layers.
var TransparentKey = KeyAction{Kind: KeyActionTransparent}

// Single wraps an immediate action.
func Single(a Action) KeyAction {
	return KeyAction{Kind: KeyActionSingle, Action: a}
}

// TapHold builds a two-outcome key.
func TapHold(tap, hold Action, profile MorseProfile) KeyAction {
	return KeyAction{Kind: KeyActionTapHold, Tap: tap, Hold: hold, Profile: profile}
}

// MT is the mod-tap shorthand: tap a key, hold a modifier.
func MT(code uint16, m ModifierCombination) KeyAction {
	return TapHold(KC(code), MD(m), MorseProfile{})
}

// LT is the layer-tap shorthand: tap a key, hold a layer.
func LT(layer uint8, code uint16) KeyAction {
	return TapHold(KC(code), MO(layer), MorseProfile{})
}

// MorseKey refers to an entry in the morse table.
func MorseKey(idx uint8) KeyAction {
	return KeyAction{Kind: KeyActionMorse, Morse: idx}
}

func (ka KeyAction) String() string {
	switch ka.Kind {
	case KeyActionNo:
		return "No"
	case KeyActionTransparent:
		return "Transparent"
	case KeyActionSingle:
		return ka.Action.String()
	case KeyActionTapHold:
		return fmt.Sprintf("TH(%s,%s)", ka.Tap, ka.Hold)
	case KeyActionMorse:
		return fmt.Sprintf("Morse(%d)", ka.Morse)
	}
	return fmt.Sprintf("KeyAction[%d]", ka.Kind)
}

// EncoderAction pairs the two rotation directions of an encoder.
type EncoderAction struct {
	Clockwise        KeyAction
	CounterClockwise KeyAction
}
