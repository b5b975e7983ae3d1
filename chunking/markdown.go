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
	"strings"

	"github.com/poiesic/quire/core"
)

var headingPattern = regexp.MustCompile(`(?m)^#{1,6} `)

// splitHeadings cuts text before every heading line. Text ahead of the
// first heading becomes an unnamed section.
func splitHeadings(text string) []segment {
	starts := []int{0}
	for _, loc := range headingPattern.FindAllStringIndex(text, -1) {
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
		segs = append(segs, segment{
			kind:  core.ChunkKindSection,
			name:  headingTitle(text[start:end]),
			start: start,
			end:   end,
		})
	}
	return segs
}

func headingTitle(section string) string {
	if !headingPattern.MatchString(section) || !strings.HasPrefix(section, "#") {
		return ""
	}
	line, _, _ := strings.Cut(section, "\n")
	return strings.TrimSpace(strings.TrimLeft(line, "#"))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
