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

// Package cadence is the key-event processing core of a keyboard
// firmware: it turns raw matrix transitions into HID reports.
//
// A scanner task feeds KeyboardEvents into the dispatcher through a
// bounded channel; a transport task consumes finished Reports from
// another.  In between, a single-owner state machine resolves the
// ambiguous inputs a keymap can express: tap-hold and morse keys,
// multi-key combos, conditional forks, one-shot modifiers and layers,
// and a stacked layer table with a per-position cache that keeps every
// press paired with an identical release.
//
// The dispatcher core (ProcessEvent/Advance) is deterministic and
// clock-agnostic; Run wraps it in a cooperative select loop for live
// use, and Simulator drives it with a virtual clock for tests and
// demos.
package cadence
