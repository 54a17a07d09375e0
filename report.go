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

// ReportKind discriminates the Report variants.
type ReportKind uint8

const (
	ReportKeyboard ReportKind = iota
	ReportNkro
	ReportMouse
	ReportConsumer
	ReportSystem
)

// Report is one finished HID report, ready for a transport to ship.
// Exactly one variant's fields are meaningful, per Kind.
type Report struct {
	Kind ReportKind

	// ReportKeyboard / ReportNkro
	Modifier uint8
	Keys     [6]uint8  // 6-key register
	Bitmap   [32]uint8 // NKRO bitmap

	// ReportMouse
	Buttons uint8
	X, Y    int8
	Wheel   int8
	Pan     int8

	// ReportConsumer
	Usage uint16

	// ReportSystem
	SystemUsage uint8
}

// KeyboardReport builds a standard boot-protocol report.
func KeyboardReport(modifier uint8, keys [6]uint8) Report {
	return Report{Kind: ReportKeyboard, Modifier: modifier, Keys: keys}
}

// Bytes encodes the report in its wire layout.  The keyboard report is
// the 8-byte boot layout [modifier, 0, k0..k5]; NKRO prepends the
// modifier to the 32-byte bitmap; the rest are their natural packing.
func (r Report) Bytes() []byte {
	switch r.Kind {
	case ReportKeyboard:
		b := make([]byte, 8)
		b[0] = r.Modifier
		copy(b[2:], r.Keys[:])
		return b
	case ReportNkro:
		b := make([]byte, 33)
		b[0] = r.Modifier
		copy(b[1:], r.Bitmap[:])
		return b
	case ReportMouse:
		return []byte{r.Buttons, byte(r.X), byte(r.Y), byte(r.Wheel), byte(r.Pan)}
	case ReportConsumer:
		return []byte{byte(r.Usage), byte(r.Usage >> 8)}
	case ReportSystem:
		return []byte{r.SystemUsage}
	}
	return nil
}

func (r Report) String() string {
	switch r.Kind {
	case ReportKeyboard:
		return fmt.Sprintf("kbd mod=%#02x keys=%v", r.Modifier, r.Keys)
	case ReportNkro:
		return fmt.Sprintf("nkro mod=%#02x", r.Modifier)
	case ReportMouse:
		return fmt.Sprintf("mouse btn=%#02x dx=%d dy=%d wheel=%d pan=%d", r.Buttons, r.X, r.Y, r.Wheel, r.Pan)
	case ReportConsumer:
		return fmt.Sprintf("consumer %#04x", r.Usage)
	case ReportSystem:
		return fmt.Sprintf("system %#02x", r.SystemUsage)
	}
	return "report?"
}
