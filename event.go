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

// Instant is a monotonic timestamp in milliseconds since boot.  A
// uint64 gives around 584 million years before wrap, so wrap handling
// reduces to plain comparison.
type Instant uint64

// Add returns the instant d milliseconds later.
func (t Instant) Add(d uint64) Instant {
	return t + Instant(d)
}

// Sub returns the elapsed milliseconds from earlier to t.  It saturates
// at zero when earlier is in the future.
func (t Instant) Sub(earlier Instant) uint64 {
	if earlier > t {
		return 0
	}
	return uint64(t - earlier)
}

// PosKind discriminates event positions.
type PosKind uint8

const (
	// PosKey is a physical matrix position.
	PosKey PosKind = iota
	// PosEncoder is a rotary encoder detent.
	PosEncoder
	// PosCombo is a synthesized position used to track the output of a
	// fired combo so its release can be paired up.
	PosCombo
)

// EncoderDirection is the rotation sense of an encoder event.
type EncoderDirection uint8

const (
	EncoderClockwise EncoderDirection = iota
	EncoderCounterClockwise
)

// Pos identifies where a keyboard event originated.  It is a small
// comparable value used as a map key throughout the pipeline.
type Pos struct {
	Kind      PosKind
	Row, Col  uint8            // PosKey
	Encoder   uint8            // PosEncoder
	Direction EncoderDirection // PosEncoder
	Combo     uint8            // PosCombo
}

// KeyPos returns a matrix position.
func KeyPos(row, col uint8) Pos {
	return Pos{Kind: PosKey, Row: row, Col: col}
}

// EncoderPos returns an encoder detent position.
func EncoderPos(id uint8, dir EncoderDirection) Pos {
	return Pos{Kind: PosEncoder, Encoder: id, Direction: dir}
}

// ComboPos returns the synthesized position for combo index idx.
func ComboPos(idx uint8) Pos {
	return Pos{Kind: PosCombo, Combo: idx}
}

func (p Pos) String() string {
	switch p.Kind {
	case PosKey:
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	case PosEncoder:
		if p.Direction == EncoderClockwise {
			return fmt.Sprintf("enc%d:cw", p.Encoder)
		}
		return fmt.Sprintf("enc%d:ccw", p.Encoder)
	case PosCombo:
		return fmt.Sprintf("combo%d", p.Combo)
	}
	return "pos?"
}

// KeyboardEvent is one raw matrix or encoder transition, as produced by
// the scanner task.
type KeyboardEvent struct {
	Pos       Pos
	Pressed   bool
	Timestamp Instant
}

// PressEvent builds a press event for a matrix position.
func PressEvent(row, col uint8, at Instant) KeyboardEvent {
	return KeyboardEvent{Pos: KeyPos(row, col), Pressed: true, Timestamp: at}
}

// ReleaseEvent builds a release event for a matrix position.
func ReleaseEvent(row, col uint8, at Instant) KeyboardEvent {
	return KeyboardEvent{Pos: KeyPos(row, col), Pressed: false, Timestamp: at}
}

func (e KeyboardEvent) String() string {
	edge := "up"
	if e.Pressed {
		edge = "down"
	}
	return fmt.Sprintf("%s %s @%d", e.Pos, edge, e.Timestamp)
}
