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

import "sync"

// ControllerEventKind discriminates the informational events published
// for peripheral tasks (LEDs, displays).
type ControllerEventKind uint8

const (
	// CtrlLayerChange reports the highest active layer after a layer
	// state change.
	CtrlLayerChange ControllerEventKind = iota
	// CtrlDefaultLayerChange reports a new default layer.
	CtrlDefaultLayerChange
	// CtrlComboFired reports a fired combo index.
	CtrlComboFired
)

// ControllerEvent is one outbound informational signal.
type ControllerEvent struct {
	Kind  ControllerEventKind
	Layer uint8
	Combo uint8
}

// controllerHub fans controller events out to subscribers.  Publishing
// never blocks the dispatcher; a subscriber that stops draining loses
// events.
type controllerHub struct {
	mu   sync.Mutex
	subs []chan ControllerEvent
}

// Subscribe returns a channel of controller events.  The buffer is
// small; peripheral tasks are expected to drain promptly.
func (h *controllerHub) Subscribe() <-chan ControllerEvent {
	ch := make(chan ControllerEvent, 8)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

func (h *controllerHub) publish(ev ControllerEvent) {
	h.mu.Lock()
	subs := h.subs
	h.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// subscriber is behind; drop the event on the floor
		}
	}
}
