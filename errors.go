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
)

var (
	// ErrInvalidConfig indicates that the configuration snapshot failed
	// validation; the dispatcher refuses to start.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEventQFull indicates that the matrix event channel overflowed.
	// The scanner must be paced so that this never happens; dropping an
	// event would break the press/release pairing invariant, so this is
	// fatal.
	ErrEventQFull = errors.New("event queue full")

	// ErrMutationRejected indicates that a live keymap edit referenced
	// an unknown keycode, layer or index and was discarded.
	ErrMutationRejected = errors.New("mutation rejected")

	// ErrMacroNotFound indicates a TriggerMacro action referenced a
	// macro index with no stored sequence.
	ErrMacroNotFound = errors.New("macro not found")
)
