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

// Compile-time sizing.  Buffers throughout the pipeline are bounded by
// these; the configuration validator enforces them.
const (
	// ComboMaxLength is the maximum ingredient count of one combo.
	ComboMaxLength = 4
	// ComboMaxNum is the maximum number of configured combos.
	ComboMaxNum = 8
	// ForkMaxNum is the maximum number of configured forks.
	ForkMaxNum = 8
	// MorseMaxNum is the maximum number of morse table entries.
	MorseMaxNum = 16
	// MorseMaxPatterns bounds tap_actions/hold_actions per morse entry,
	// and thereby the tap count a key can accumulate.
	MorseMaxPatterns = 8
	// MacroSpaceSize caps the total bytes of all stored macros.
	MacroSpaceSize = 1024
	// MacroMaxNum is the maximum number of stored macros.
	MacroMaxNum = 32

	// DefaultEventChanCap is the minimum bound for the matrix event
	// channel; overflow is a scanner pacing bug.
	DefaultEventChanCap = 16
	// DefaultReportChanCap bounds the outbound report channel.
	DefaultReportChanCap = 16
	// DefaultMutationChanCap bounds the live-edit channel.
	DefaultMutationChanCap = 8
)

// Default timeouts, in milliseconds.
const (
	DefaultHoldTimeoutMs        = 250
	DefaultGapTimeoutMs         = 250
	DefaultComboTimeoutMs       = 50
	DefaultOneShotTimeoutMs     = 1000
	DefaultMouseKeyIntervalMs   = 20
	DefaultMouseWheelIntervalMs = 80
)

// OneShotConfig tunes the one-shot modifier and layer behavior.
type OneShotConfig struct {
	TimeoutMs          uint64
	ActivateOnKeypress bool
	SendOnSecondPress  bool
}

// ComboConfig holds the configured combos and their shared timeout.
type ComboConfig struct {
	TimeoutMs uint64
	Combos    []Combo
}

// ForkConfig holds the configured forks, evaluated in order.
type ForkConfig struct {
	Forks []Fork
}

// MorseConfig holds the morse table and the profile defaults that
// per-key profiles inherit from.
type MorseConfig struct {
	DefaultProfile MorseProfile
	// ChordalHold restricts PermissiveHold/HoldOnOtherPress triggers to
	// opposite-hand keys, per the positional hand map.
	ChordalHold bool
	Entries     []MorseEntry
}

// MacroConfig is the compiled macro space.  Macros are stored back to
// back, each terminated by an end marker; see macro.go for the
// encoding.  Charset names the encoding of stored text operations;
// empty means UTF-8.
type MacroConfig struct {
	Space   []byte
	Charset string
}

// MouseConfig tunes mouse-key emulation.
type MouseConfig struct {
	KeyIntervalMs   uint64
	WheelIntervalMs uint64
	// InitialSpeed and MaxSpeed bound the acceleration curve, in report
	// units per interval.  AccelSteps is how many intervals it takes to
	// ramp between them.
	InitialSpeed int8
	MaxSpeed     int8
	AccelSteps   uint8
	WheelSpeed   int8
}

// TriLayerConfig names the (lower, upper, adjust) triple.  Nil disables
// tri-layer.
type TriLayerConfig struct {
	Lower  uint8
	Upper  uint8
	Adjust uint8
}

// BehaviorConfig aggregates every configurable behavior of the
// pipeline.  It is owned by the KeyMap and mutated only between events.
type BehaviorConfig struct {
	TriLayer *TriLayerConfig
	OneShot  OneShotConfig
	Combo    ComboConfig
	Fork     ForkConfig
	Morse    MorseConfig
	Macro    MacroConfig
	Mouse    MouseConfig
}

// DefaultBehavior returns a BehaviorConfig with the stock timeouts and
// no combos, forks, morses or macros.
func DefaultBehavior() BehaviorConfig {
	return BehaviorConfig{
		OneShot: OneShotConfig{TimeoutMs: DefaultOneShotTimeoutMs},
		Combo:   ComboConfig{TimeoutMs: DefaultComboTimeoutMs},
		Morse: MorseConfig{
			DefaultProfile: MorseProfile{
				Mode:          MorseModeNormal,
				UnilateralTap: OptFalse,
				HoldTimeoutMs: DefaultHoldTimeoutMs,
				GapTimeoutMs:  DefaultGapTimeoutMs,
			},
		},
		Mouse: MouseConfig{
			KeyIntervalMs:   DefaultMouseKeyIntervalMs,
			WheelIntervalMs: DefaultMouseWheelIntervalMs,
			InitialSpeed:    2,
			MaxSpeed:        16,
			AccelSteps:      8,
			WheelSpeed:      1,
		},
	}
}

// resolve fills a per-key profile's unset fields from the defaults.
func (mc *MorseConfig) resolve(p MorseProfile) MorseProfile {
	d := mc.DefaultProfile
	if p.Mode == MorseModeUnset {
		p.Mode = d.Mode
	}
	if p.Mode == MorseModeUnset {
		p.Mode = MorseModeNormal
	}
	if p.UnilateralTap == OptUnset {
		p.UnilateralTap = d.UnilateralTap
	}
	if p.HoldTimeoutMs == 0 {
		p.HoldTimeoutMs = d.HoldTimeoutMs
	}
	if p.HoldTimeoutMs == 0 {
		p.HoldTimeoutMs = DefaultHoldTimeoutMs
	}
	if p.GapTimeoutMs == 0 {
		p.GapTimeoutMs = d.GapTimeoutMs
	}
	if p.GapTimeoutMs == 0 {
		p.GapTimeoutMs = DefaultGapTimeoutMs
	}
	return p
}
