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

// simulate runs the pipeline against a virtual 1x6 matrix in your
// terminal.  Keys 1-6 tap the matrix positions; holding is simulated
// with shift+digit (press) and a second shift+digit (release).  Watch
// how the tap-hold, combo and one-shot keys resolve into HID reports.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell"
	"github.com/mattn/go-runewidth"

	"github.com/cadencekb/cadence"
)

func snapshot() *cadence.Snapshot {
	layer0 := [][]cadence.KeyAction{{
		cadence.Single(cadence.KC(cadence.KeyA)),
		cadence.Single(cadence.KC(cadence.KeyB)),
		cadence.MT(cadence.KeyC, cadence.ModLShift),
		cadence.LT(1, cadence.KeyD),
		cadence.Single(cadence.OSM(cadence.ModLCtrl)),
		cadence.Single(cadence.KC(cadence.KeyEscape)),
	}}
	layer1 := [][]cadence.KeyAction{{
		cadence.Single(cadence.KC(cadence.Key1)),
		cadence.Single(cadence.KC(cadence.Key2)),
		cadence.Single(cadence.KC(cadence.Key3)),
		cadence.TransparentKey,
		cadence.TransparentKey,
		cadence.TransparentKey,
	}}
	snap := &cadence.Snapshot{
		Rows: 1, Cols: 6,
		Layers:   [][][]cadence.KeyAction{layer0, layer1},
		Behavior: cadence.DefaultBehavior(),
	}
	snap.Behavior.Combo.Combos = []cadence.Combo{
		cadence.NewCombo(
			[]cadence.KeyAction{
				cadence.Single(cadence.KC(cadence.KeyA)),
				cadence.Single(cadence.KC(cadence.KeyB)),
			},
			cadence.Single(cadence.KC(cadence.KeyX)), nil),
	}
	return snap
}

func putStr(s tcell.Screen, x, y int, style tcell.Style, str string) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func main() {
	sim, err := cadence.NewSimulator(snapshot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	s, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err = s.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer s.Fini()

	held := [6]bool{}
	var lines []string
	start := time.Now()
	elapsed := func() uint64 { return uint64(time.Since(start) / time.Millisecond) }
	last := uint64(0)

	draw := func() {
		s.Clear()
		style := tcell.StyleDefault
		putStr(s, 1, 1, style.Bold(true), "cadence pipeline simulator")
		putStr(s, 1, 2, style, "1-6: tap a matrix key   !@#$%^: hold/release   q: quit")
		keys := ""
		names := []string{"A", "B", "TH(C,Sft)", "LT1(D)", "OSM(Ctl)", "Esc"}
		for i, n := range names {
			cell := runewidth.FillRight(n, 10)
			if held[i] {
				cell = "[" + cell + "]"
			} else {
				cell = " " + cell + " "
			}
			keys += cell
		}
		putStr(s, 1, 4, style, keys)
		putStr(s, 1, 6, style.Bold(true), "reports:")
		row := 7
		from := 0
		if len(lines) > 12 {
			from = len(lines) - 12
		}
		for _, l := range lines[from:] {
			putStr(s, 1, row, style, l)
			row++
		}
		s.Show()
	}

	pump := func() {
		now := elapsed()
		if now > last {
			sim.Idle(now - last)
			last = now
		}
		for _, r := range sim.Reports() {
			lines = append(lines, r.String())
		}
	}

	draw()
	for {
		ev := s.PollEvent()
		pump()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			r := ev.Rune()
			switch {
			case r == 'q' || ev.Key() == tcell.KeyEscape:
				return
			case r >= '1' && r <= '6':
				col := uint8(r - '1')
				sim.InjectKey(0, col, true, 0)
				sim.InjectKey(0, col, false, 60)
				last = uint64(sim.Now())
			default:
				if col, ok := shiftDigit(r); ok {
					held[col] = !held[col]
					sim.InjectKey(0, col, held[col], 0)
					last = uint64(sim.Now())
				}
			}
		case *tcell.EventResize:
			s.Sync()
		}
		pump()
		draw()
	}
}

// shiftDigit maps the shifted US digits to matrix columns.
func shiftDigit(r rune) (uint8, bool) {
	switch r {
	case '!':
		return 0, true
	case '@':
		return 1, true
	case '#':
		return 2, true
	case '$':
		return 3, true
	case '%':
		return 4, true
	case '^':
		return 5, true
	}
	return 0, false
}
