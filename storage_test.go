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

import "testing"

func TestStorageKeyRoundTrip(t *testing.T) {
	keys := []StorageKey{
		{Kind: StorageKeymapKey, Layer: 2, Row: 3, Col: 4},
		{Kind: StorageEncoder, Layer: 1, Encoder: 0},
		{Kind: StorageCombo, Index: 5},
		{Kind: StorageMorse, Index: 7},
		{Kind: StorageFork, Index: 1},
		{Kind: StorageLayoutConfig},
		{Kind: StorageBehaviorTimeouts},
		{Kind: StorageBondInfo, Index: 2},
	}
	for _, k := range keys {
		got, err := DecodeStorageKey(k.Encode())
		if err != nil {
			t.Errorf("%+v: %v", k, err)
			continue
		}
		if got != k {
			t.Errorf("round trip: got %+v, want %+v", got, k)
		}
	}
	if _, err := DecodeStorageKey(nil); err == nil {
		t.Error("empty key accepted")
	}
}

func TestKeyActionRoundTrip(t *testing.T) {
	cases := []KeyAction{
		NoKey,
		TransparentKey,
		Single(KC(KeyA)),
		Single(KeyAct(Consumer(UsageConsumerPlayPause))),
		Single(KM(KeyB, ModLShift|ModRAlt)),
		Single(MO(3)),
		Single(TG(2)),
		Single(TO(1)),
		Single(DF(1)),
		Single(LM(2, ModLCtrl)),
		Single(OSM(ModLShift)),
		Single(OSL(1)),
		Single(MacroTrigger(9)),
		Single(TriLayerLower),
		MT(KeyC, ModLGui),
		LT(1, KeyD),
		TapHold(KC(KeyE), MD(ModLAlt), MorseProfile{
			Mode:          MorseModePermissiveHold,
			UnilateralTap: OptTrue,
			HoldTimeoutMs: 180,
			GapTimeoutMs:  150,
		}),
		MorseKey(4),
	}
	for _, ka := range cases {
		enc := AppendKeyAction(nil, ka)
		if len(enc) > KeyActionMaxSize {
			t.Errorf("%v encodes to %d bytes, max %d", ka, len(enc), KeyActionMaxSize)
		}
		got, n, err := DecodeKeyAction(enc)
		if err != nil {
			t.Errorf("%v: %v", ka, err)
			continue
		}
		if n != len(enc) {
			t.Errorf("%v: consumed %d of %d", ka, n, len(enc))
		}
		if got.Kind != ka.Kind || got.Action != ka.Action || got.Tap != ka.Tap ||
			got.Hold != ka.Hold || got.Profile != ka.Profile || got.Morse != ka.Morse {
			t.Errorf("round trip: got %+v, want %+v", got, ka)
		}
	}
}

func TestComboEncodingRoundTrip(t *testing.T) {
	layer := uint8(2)
	c := NewCombo(
		[]KeyAction{Single(KC(KeyJ)), Single(KC(KeyK)), MT(KeyL, ModLShift)},
		Single(KC(KeyEscape)), &layer)
	enc := EncodeCombo(c)
	if len(enc) > ComboMaxSize {
		t.Errorf("combo encodes to %d bytes, max %d", len(enc), ComboMaxSize)
	}
	got, err := DecodeCombo(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Triggers) != 3 || got.Triggers[2] != c.Triggers[2] || got.Output != c.Output {
		t.Errorf("got %+v", got)
	}
	if got.Layer == nil || *got.Layer != layer {
		t.Errorf("layer %v", got.Layer)
	}
}

func TestForkEncodingRoundTrip(t *testing.T) {
	f := Fork{
		Trigger:       Single(KC(KeyDot)),
		Negative:      KC(KeyDot),
		Positive:      KC(KeySemicolon),
		MatchAny:      StateBits{Modifiers: ModLShift | ModRShift},
		MatchNone:     StateBits{Leds: 0x02},
		KeptModifiers: ModRShift,
		Bindable:      true,
	}
	enc := EncodeFork(f)
	if len(enc) > ForkMaxSize {
		t.Errorf("fork encodes to %d bytes, max %d", len(enc), ForkMaxSize)
	}
	got, err := DecodeFork(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Trigger != f.Trigger || got.Negative != f.Negative || got.Positive != f.Positive ||
		got.MatchAny != f.MatchAny || got.MatchNone != f.MatchNone ||
		got.KeptModifiers != f.KeptModifiers || got.Bindable != f.Bindable {
		t.Errorf("got %+v, want %+v", got, f)
	}
}

func TestMorseEntryEncodingRoundTrip(t *testing.T) {
	e := MorseEntry{
		Profile:     MorseProfile{Mode: MorseModeHoldOnOtherPress, HoldTimeoutMs: 170},
		TapActions:  []Action{KC(KeyB), KC(KeyX)},
		HoldActions: []Action{MD(ModLShift)},
		PatternActions: map[MorsePattern]Action{
			EmptyPattern.Append(false).Append(true): KC(KeyA),
			EmptyPattern.Append(true):               KC(KeyN),
		},
	}
	enc := EncodeMorseEntry(e)
	if len(enc) > MorseEntryMaxSize {
		t.Errorf("morse entry encodes to %d bytes, max %d", len(enc), MorseEntryMaxSize)
	}
	got, err := DecodeMorseEntry(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Profile != e.Profile || len(got.TapActions) != 2 || len(got.HoldActions) != 1 {
		t.Errorf("got %+v", got)
	}
	for p, a := range e.PatternActions {
		if got.PatternActions[p] != a {
			t.Errorf("pattern %#x: got %v, want %v", uint16(p), got.PatternActions[p], a)
		}
	}
}

func TestTimeoutsAndLayoutRoundTrip(t *testing.T) {
	ts := BehaviorTimeouts{HoldTimeoutMs: 200, GapTimeoutMs: 180, ComboTimeoutMs: 50, OneShotTimeoutMs: 1000}
	gotTs, err := DecodeBehaviorTimeouts(ts.Encode())
	if err != nil || gotTs != ts {
		t.Errorf("timeouts: %v %v", gotTs, err)
	}

	lc := LayoutConfig{DefaultLayer: 1, LayoutOption: 0xA1B2C3}
	gotLc, err := DecodeLayoutConfig(lc.Encode())
	if err != nil || gotLc != lc {
		t.Errorf("layout config: %v %v", gotLc, err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	// Truncated values must fail cleanly, never panic.
	enc := AppendKeyAction(nil, MT(KeyC, ModLGui))
	for _, cut := range []int{0, 1, 2, len(enc) - 1} {
		if _, _, err := DecodeKeyAction(enc[:cut]); err == nil {
			t.Errorf("truncated at %d decoded", cut)
		}
	}
	if _, err := DecodeCombo(nil); err == nil {
		t.Error("empty combo decoded")
	}
	if _, err := DecodeMorseEntry([]byte{1, 2}); err == nil {
		t.Error("short morse entry decoded")
	}
}
