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

import "unicode"

// Break points, most preferred first. A hard cut is used only when none
// occurs in range.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(" "),
}

type piece struct {
	text    string
	overlap int // leading runes shared with the previous piece
}

// splitter cuts text into windows of at most window runes. Consecutive
// pieces share up to overlap runes; dropping each piece's leading overlap
// and concatenating gives back the input.
type splitter struct {
	window  int
	overlap int
}

func (s splitter) split(text string) []piece {
	if text == "" {
		return nil
	}
	r := []rune(text)
	n := len(r)

	var pieces []piece
	start, shared := 0, 0
	for {
		if start+s.window >= n {
			return append(pieces, piece{text: string(r[start:]), overlap: shared})
		}
		cut := s.breakPoint(r, start, start+s.window)
		pieces = append(pieces, piece{text: string(r[start:cut]), overlap: shared})

		next := s.overlapStart(r, start, cut)
		shared = cut - next
		start = next
	}
}

// breakPoint picks the cut for the window r[start:end]. The cut always
// lies beyond start+overlap so the next window makes progress.
func (s splitter) breakPoint(r []rune, start, end int) int {
	lowest := start + s.overlap + 1
	for _, sep := range separators {
		for i := end - len(sep); i >= start && i+len(sep) >= lowest; i-- {
			if hasRunes(r, i, sep) {
				return i + len(sep)
			}
		}
	}
	return end
}

// overlapStart returns where the next window begins: overlap runes before
// cut, moved forward to a word boundary when one exists.
func (s splitter) overlapStart(r []rune, start, cut int) int {
	if s.overlap == 0 {
		return cut
	}
	want := cut - s.overlap
	if want <= start {
		want = start + 1
	}
	for i := want; i < cut; i++ {
		if unicode.IsSpace(r[i-1]) {
			return i
		}
	}
	return want
}

func hasRunes(r []rune, at int, sep []rune) bool {
	if at < 0 || at+len(sep) > len(r) {
		return false
	}
	for j, c := range sep {
		if r[at+j] != c {
			return false
		}
	}
	return true
}
