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
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/poiesic/quire/core"
)

func scriptLanguage(lang language) *sitter.Language {
	switch lang {
	case languageTypeScript:
		return typescript.GetLanguage()
	case languageTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// parseScript handles JavaScript, TypeScript and TSX. A JSDoc block that
// ends on the line directly above a declaration becomes that declaration's
// doc and is included in its chunk.
func parseScript(ctx context.Context, src []byte, lang language) ([]segment, error) {
	return parseTree(ctx, scriptLanguage(lang), src, func(root *sitter.Node) []segment {
		var (
			segs    []segment
			pending *sitter.Node
		)
		flush := func() {
			if pending != nil {
				segs = appendGrouped(segs, core.ChunkKindRaw, int(pending.StartByte()), int(pending.EndByte()))
				pending = nil
			}
		}

		for i := 0; i < int(root.NamedChildCount()); i++ {
			n := root.NamedChild(i)
			if n.Type() == "comment" {
				flush()
				if strings.HasPrefix(n.Content(src), "/**") {
					pending = n
				} else {
					segs = appendGrouped(segs, core.ChunkKindRaw, int(n.StartByte()), int(n.EndByte()))
				}
				continue
			}

			if n.Type() == "import_statement" {
				flush()
				segs = appendGrouped(segs, core.ChunkKindImport, int(n.StartByte()), int(n.EndByte()))
				continue
			}

			decl := n
			if n.Type() == "export_statement" {
				decl = n.ChildByFieldName("declaration")
				if decl == nil {
					decl = n.ChildByFieldName("value")
				}
			}
			seg, ok := scriptDecl(n, decl, src)
			if !ok {
				flush()
				segs = appendGrouped(segs, core.ChunkKindRaw, int(n.StartByte()), int(n.EndByte()))
				continue
			}
			if pending != nil && n.StartPoint().Row == pending.EndPoint().Row+1 {
				seg.start = int(pending.StartByte())
				seg.doc = cleanJSDoc(pending.Content(src))
				pending = nil
			}
			flush()
			segs = append(segs, seg)
		}
		flush()
		return segs
	})
}

func scriptDecl(outer, decl *sitter.Node, src []byte) (segment, bool) {
	if decl == nil {
		return segment{}, false
	}
	seg := segment{start: int(outer.StartByte()), end: int(outer.EndByte())}
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature",
		"function_expression", "function", "generator_function", "arrow_function":
		seg.kind = core.ChunkKindFunction
		seg.name = nodeName(decl, src)
	case "class_declaration", "abstract_class_declaration", "class",
		"interface_declaration", "type_alias_declaration", "enum_declaration":
		seg.kind = core.ChunkKindClass
		seg.name = nodeName(decl, src)
	case "lexical_declaration", "variable_declaration":
		declarator := firstNamedChildOfType(decl, "variable_declarator")
		if declarator == nil {
			return segment{}, false
		}
		value := declarator.ChildByFieldName("value")
		if value == nil {
			return segment{}, false
		}
		switch value.Type() {
		case "arrow_function", "function", "function_expression", "generator_function":
			seg.kind = core.ChunkKindFunction
		case "class":
			seg.kind = core.ChunkKindClass
		default:
			return segment{}, false
		}
		seg.name = nodeName(declarator, src)
	default:
		return segment{}, false
	}
	return seg, true
}

func firstNamedChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func cleanJSDoc(comment string) string {
	comment = strings.TrimSuffix(strings.TrimPrefix(comment, "/**"), "*/")
	lines := strings.Split(comment, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
