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
	log "github.com/sirupsen/logrus"
)

// Hand tags a matrix position for chordal-hold decisions.
type Hand uint8

const (
	HandUnknown Hand = iota
	HandLeft
	HandRight
)

// KeyMap is the stack of layers, bound to the physical matrix.  The
// dispatcher owns it exclusively; nothing here is safe for concurrent
// use.
type KeyMap struct {
	rows, cols uint8

	// layers[layer][row][col]
	layers [][][]KeyAction
	// encoders[layer][id]
	encoders [][]EncoderAction

	layerState   []bool
	defaultLayer uint8

	// layerCache[row][col] remembers which layer resolved the press at
	// a position, so the release resolves identically.
	layerCache [][]uint8
	// encoderLayerCache[id][direction]
	encoderLayerCache [][2]uint8

	behavior BehaviorConfig

	// hands[row][col] for chordal hold.
	hands [][]Hand
}

// NewKeyMap builds a KeyMap from a validated snapshot.  Use
// Snapshot.Validate before calling; NewKeyMap assumes shape invariants
// hold.
func NewKeyMap(snap *Snapshot) *KeyMap {
	km := &KeyMap{
		rows:         snap.Rows,
		cols:         snap.Cols,
		layers:       snap.Layers,
		encoders:     snap.Encoders,
		layerState:   make([]bool, len(snap.Layers)),
		defaultLayer: snap.DefaultLayer,
		behavior:     snap.Behavior,
		hands:        snap.Hands,
	}
	km.layerCache = make([][]uint8, km.rows)
	for r := range km.layerCache {
		km.layerCache[r] = make([]uint8, km.cols)
		for c := range km.layerCache[r] {
			km.layerCache[r][c] = km.defaultLayer
		}
	}
	km.encoderLayerCache = make([][2]uint8, snap.NumEncoders())
	for i := range km.encoderLayerCache {
		km.encoderLayerCache[i] = [2]uint8{km.defaultLayer, km.defaultLayer}
	}
	return km
}

// NumLayers returns the number of configured layers.
func (km *KeyMap) NumLayers() int { return len(km.layers) }

// Size returns the matrix dimensions.
func (km *KeyMap) Size() (rows, cols uint8) { return km.rows, km.cols }

// Behavior returns the mutable behavior configuration.
func (km *KeyMap) Behavior() *BehaviorConfig { return &km.behavior }

// DefaultLayer returns the default layer number.
func (km *KeyMap) DefaultLayer() uint8 { return km.defaultLayer }

// SetDefaultLayer sets the default layer number.
func (km *KeyMap) SetDefaultLayer(layer uint8) {
	if int(layer) >= len(km.layers) {
		log.Warnf("keymap: default layer %d out of range (%d layers)", layer, len(km.layers))
		return
	}
	km.defaultLayer = layer
}

// Hand returns the configured hand for a position, or HandUnknown.
func (km *KeyMap) Hand(pos Pos) Hand {
	if pos.Kind != PosKey || km.hands == nil {
		return HandUnknown
	}
	if int(pos.Row) >= len(km.hands) || int(pos.Col) >= len(km.hands[pos.Row]) {
		return HandUnknown
	}
	return km.hands[pos.Row][pos.Col]
}

// ActionAt fetches the stored action at an explicit layer.
func (km *KeyMap) ActionAt(pos Pos, layer uint8) KeyAction {
	switch pos.Kind {
	case PosKey:
		if int(layer) >= len(km.layers) || int(pos.Row) >= int(km.rows) || int(pos.Col) >= int(km.cols) {
			return NoKey
		}
		return km.layers[layer][pos.Row][pos.Col]
	case PosEncoder:
		if int(layer) >= len(km.encoders) || int(pos.Encoder) >= len(km.encoders[layer]) {
			return NoKey
		}
		ea := km.encoders[layer][pos.Encoder]
		if pos.Direction == EncoderClockwise {
			return ea.Clockwise
		}
		return ea.CounterClockwise
	}
	return NoKey
}

// SetActionAt stores an action at an explicit layer.
func (km *KeyMap) SetActionAt(pos Pos, layer uint8, action KeyAction) {
	switch pos.Kind {
	case PosKey:
		if int(layer) >= len(km.layers) || int(pos.Row) >= int(km.rows) || int(pos.Col) >= int(km.cols) {
			log.Warnf("keymap: set action at %s layer %d out of range", pos, layer)
			return
		}
		km.layers[layer][pos.Row][pos.Col] = action
	case PosEncoder:
		if int(layer) >= len(km.encoders) || int(pos.Encoder) >= len(km.encoders[layer]) {
			log.Warnf("keymap: set encoder action at %s layer %d out of range", pos, layer)
			return
		}
		if pos.Direction == EncoderClockwise {
			km.encoders[layer][pos.Encoder].Clockwise = action
		} else {
			km.encoders[layer][pos.Encoder].CounterClockwise = action
		}
	}
}

// ActionWithLayerCache resolves the action for an event.  Presses walk
// the layer stack from the top, skip Transparent cells, and record the
// resolving layer in the cache; releases read and reset the cached
// layer so press and release always pair on the same action.
func (km *KeyMap) ActionWithLayerCache(ev KeyboardEvent) KeyAction {
	if !ev.Pressed {
		layer := km.popLayerCache(ev.Pos)
		return km.ActionAt(ev.Pos, layer)
	}

	for idx := len(km.layers) - 1; idx >= 0; idx-- {
		layer := uint8(idx)
		if !km.layerState[idx] && layer != km.defaultLayer {
			continue
		}
		action := km.ActionAt(ev.Pos, layer)
		if action.Kind == KeyActionTransparent {
			if layer == km.defaultLayer {
				break
			}
			continue
		}
		km.saveLayerCache(ev.Pos, layer)
		return action
	}
	return NoKey
}

func (km *KeyMap) popLayerCache(pos Pos) uint8 {
	switch pos.Kind {
	case PosKey:
		if int(pos.Row) >= int(km.rows) || int(pos.Col) >= int(km.cols) {
			log.Warnf("keymap: no cached layer for release at %s, using default layer", pos)
			return km.defaultLayer
		}
		layer := km.layerCache[pos.Row][pos.Col]
		km.layerCache[pos.Row][pos.Col] = km.defaultLayer
		return layer
	case PosEncoder:
		if int(pos.Encoder) >= len(km.encoderLayerCache) {
			log.Warnf("keymap: no cached layer for release at %s, using default layer", pos)
			return km.defaultLayer
		}
		layer := km.encoderLayerCache[pos.Encoder][pos.Direction]
		km.encoderLayerCache[pos.Encoder][pos.Direction] = km.defaultLayer
		return layer
	}
	return km.defaultLayer
}

func (km *KeyMap) saveLayerCache(pos Pos, layer uint8) {
	switch pos.Kind {
	case PosKey:
		km.layerCache[pos.Row][pos.Col] = layer
	case PosEncoder:
		if int(pos.Encoder) < len(km.encoderLayerCache) {
			km.encoderLayerCache[pos.Encoder][pos.Direction] = layer
		}
	}
}

// ActivatedLayer returns the highest active layer, counting the
// default layer as always active.
func (km *KeyMap) ActivatedLayer() uint8 {
	for idx := len(km.layers) - 1; idx >= 0; idx-- {
		if km.layerState[idx] || uint8(idx) == km.defaultLayer {
			return uint8(idx)
		}
	}
	return km.defaultLayer
}

// LayerActive reports whether a layer is currently active.
func (km *KeyMap) LayerActive(layer uint8) bool {
	if int(layer) >= len(km.layerState) {
		return false
	}
	return km.layerState[layer] || layer == km.defaultLayer
}

// ActivateLayer turns a layer on and refreshes the tri-layer.
func (km *KeyMap) ActivateLayer(layer uint8) bool {
	if int(layer) >= len(km.layers) {
		log.Warnf("keymap: layer %d not valid, only %d layers", layer, len(km.layers))
		return false
	}
	km.layerState[layer] = true
	km.updateTriLayer()
	return true
}

// DeactivateLayer turns a layer off and refreshes the tri-layer.
func (km *KeyMap) DeactivateLayer(layer uint8) bool {
	if int(layer) >= len(km.layers) {
		log.Warnf("keymap: layer %d not valid, only %d layers", layer, len(km.layers))
		return false
	}
	km.layerState[layer] = false
	km.updateTriLayer()
	return true
}

// ToggleLayer flips a layer.
func (km *KeyMap) ToggleLayer(layer uint8) bool {
	if int(layer) >= len(km.layers) {
		log.Warnf("keymap: layer %d not valid, only %d layers", layer, len(km.layers))
		return false
	}
	km.layerState[layer] = !km.layerState[layer]
	km.updateTriLayer()
	return true
}

// ToggleLayerOnly activates a layer and clears every other non-default
// layer.
func (km *KeyMap) ToggleLayerOnly(layer uint8) bool {
	if int(layer) >= len(km.layers) {
		log.Warnf("keymap: layer %d not valid, only %d layers", layer, len(km.layers))
		return false
	}
	for i := range km.layerState {
		km.layerState[i] = false
	}
	km.layerState[layer] = true
	km.updateTriLayer()
	return true
}

func (km *KeyMap) updateTriLayer() {
	tl := km.behavior.TriLayer
	if tl == nil {
		return
	}
	if int(tl.Lower) >= len(km.layerState) || int(tl.Upper) >= len(km.layerState) || int(tl.Adjust) >= len(km.layerState) {
		return
	}
	km.layerState[tl.Adjust] = km.layerState[tl.Lower] && km.layerState[tl.Upper]
}
