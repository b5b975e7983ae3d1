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


// Package chunking splits file content into bounded structural units.
//
// Source files with a syntactic rule are parsed (tree-sitter for Python,
// JavaScript and TypeScript; go/parser for Go) and cut at top-level
// declarations: one chunk per run of imports, one per function, one per
// type or class. When a parse fails the content is split heuristically
// before lines that look like declarations. Markdown-like text is cut at
// headings. Everything else, and any chunk longer than the configured
// maximum, goes through a windowed splitter whose output, with overlap
// removed, concatenates back to the input.
//
// Outline extracts declaration signatures only, for inputs too large to
// send anywhere in full.
package chunking
