// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunking

import (
	"regexp"

	"github.com/poiesic/quire/core"
)

var (
	pythonDeclStart = regexp.MustCompile(`(?m)^(?:async\s+def|def|class)\s`)
	scriptDeclStart = regexp.MustCompile(`(?m)^(?:export\s+)?(?:default\s+)?(?:async\s+)?(?:function\b|class\s)`)
	goDeclStart     = regexp.MustCompile(`(?m)^(?:func|type)\s`)

	declName = regexp.MustCompile(`(?:def|class|function\*?|func|type)\s+(?:\([^)]*\)\s*)?([A-Za-z_$][\w$]*)`)
)

// splitDeclarations is the fallback for sources that fail to parse: cut
// before every line that looks like the start of a declaration. All
// segments are raw.
func splitDeclarations(text string, lang language) []segment {
	var pattern *regexp.Regexp
	switch lang {
	case languagePython:
		pattern = pythonDeclStart
	case languageJavaScript, languageTypeScript, languageTSX:
		pattern = scriptDeclStart
	case languageGo:
		pattern = goDeclStart
	default:
		return []segment{{kind: core.ChunkKindRaw, start: 0, end: len(text)}}
	}

	starts := []int{0}
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] != 0 {
			starts = append(starts, loc[0])
		}
	}

	segs := make([]segment, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		s := segment{kind: core.ChunkKindRaw, start: start, end: end}
		if pattern.MatchString(text[start:end]) {
			if m := declName.FindStringSubmatch(text[start:end]); m != nil {
				s.name = m[1]
			}
		}
		segs = append(segs, s)
	}
	return segs
}
