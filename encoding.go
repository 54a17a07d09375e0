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
	"sync"

	genc "github.com/gdamore/encoding"
	"golang.org/x/text/encoding"
)

var encodings map[string]encoding.Encoding
var encodingLk sync.Mutex

// RegisterEncoding registers a charset for macro text decoding.  Hosts
// store macro text in their own locale's encoding; the macro engine
// decodes it through the registered transformer before synthesizing
// taps.  UTF-8 and US-ASCII need no registration.
func RegisterEncoding(name string, enc encoding.Encoding) {
	encodingLk.Lock()
	if encodings == nil {
		encodings = make(map[string]encoding.Encoding)
	}
	encodings[name] = enc
	encodingLk.Unlock()
}

// GetEncoding returns a registered charset, or nil for UTF-8/US-ASCII
// and unknown names.
func GetEncoding(name string) encoding.Encoding {
	encodingLk.Lock()
	defer encodingLk.Unlock()
	if enc, ok := encodings[name]; ok {
		return enc
	}
	return nil
}

func init() {
	RegisterEncoding("ISO8859-1", genc.ISO8859_1)
	RegisterEncoding("ISO8859-9", genc.ISO8859_9)
	RegisterEncoding("ASCII", genc.ASCII)
}
