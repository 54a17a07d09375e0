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

//go:build linux

// evdevfeed drives the pipeline from a real Linux input device: the
// left-hand home row of the device becomes a 1x4 virtual matrix with a
// tap-hold home-row mod layout, and resolved HID reports are logged.
// Run as root (or with access to /dev/input) and pass the event
// device, e.g. evdevfeed /dev/input/event3.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	evdev "github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"

	"github.com/cadencekb/cadence"
)

// scancodes maps evdev KEY_A/S/D/F to matrix columns.
var scancodes = map[evdev.EvCode]uint8{
	evdev.KEY_A: 0,
	evdev.KEY_S: 1,
	evdev.KEY_D: 2,
	evdev.KEY_F: 3,
}

func snapshot() *cadence.Snapshot {
	return &cadence.Snapshot{
		Rows: 1, Cols: 4,
		Layers: [][][]cadence.KeyAction{{{
			cadence.MT(cadence.KeyA, cadence.ModLGui),
			cadence.MT(cadence.KeyS, cadence.ModLAlt),
			cadence.MT(cadence.KeyD, cadence.ModLCtrl),
			cadence.MT(cadence.KeyF, cadence.ModLShift),
		}}},
		Behavior: cadence.DefaultBehavior(),
	}
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s /dev/input/eventN", os.Args[0])
	}
	dev, err := evdev.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open %s: %v", os.Args[1], err)
	}
	name, _ := dev.Name()
	log.Infof("feeding from %q", name)

	d, err := cadence.NewDispatcher(snapshot())
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := d.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("dispatcher: %v", err)
		}
	}()
	go func() {
		for r := range d.Reports() {
			log.Infof("report: %s", r)
		}
	}()

	start := time.Now()
	for ctx.Err() == nil {
		ev, err := dev.ReadOne()
		if err != nil {
			log.Errorf("read: %v", err)
			return
		}
		if ev.Type != evdev.EV_KEY || ev.Value > 1 {
			continue // ignore autorepeat and non-key events
		}
		col, ok := scancodes[ev.Code]
		if !ok {
			continue
		}
		kev := cadence.KeyboardEvent{
			Pos:       cadence.KeyPos(0, col),
			Pressed:   ev.Value == 1,
			Timestamp: cadence.Instant(time.Since(start) / time.Millisecond),
		}
		if err := d.PostEvent(kev); err != nil {
			log.Fatalf("event queue overflow: %v", err)
		}
	}
}
