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
	"github.com/smacker/go-tree-sitter/python"

	"github.com/poiesic/quire/core"
)

func parsePython(ctx context.Context, src []byte) ([]segment, error) {
	return parseTree(ctx, python.GetLanguage(), src, func(root *sitter.Node) []segment {
		var segs []segment
		for i := 0; i < int(root.NamedChildCount()); i++ {
			n := root.NamedChild(i)
			start, end := int(n.StartByte()), int(n.EndByte())
			switch n.Type() {
			case "import_statement", "import_from_statement", "future_import_statement":
				segs = appendGrouped(segs, core.ChunkKindImport, start, end)
			case "function_definition", "class_definition":
				segs = append(segs, pythonDecl(n, n, src))
			case "decorated_definition":
				if def := n.ChildByFieldName("definition"); def != nil {
					segs = append(segs, pythonDecl(n, def, src))
				} else {
					segs = appendGrouped(segs, core.ChunkKindRaw, start, end)
				}
			default:
				segs = appendGrouped(segs, core.ChunkKindRaw, start, end)
			}
		}
		return segs
	})
}

// pythonDecl builds the segment for def, spanning outer so decorators stay
// attached.
func pythonDecl(outer, def *sitter.Node, src []byte) segment {
	kind := core.ChunkKindFunction
	if def.Type() == "class_definition" {
		kind = core.ChunkKindClass
	}
	return segment{
		kind:  kind,
		name:  nodeName(def, src),
		doc:   pythonDocstring(def, src),
		start: int(outer.StartByte()),
		end:   int(outer.EndByte()),
	}
}

func pythonDocstring(def *sitter.Node, src []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return cleanDocstring(str.Content(src))
}

func cleanDocstring(lit string) string {
	lit = strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(lit, q) && strings.HasSuffix(lit, q) && len(lit) >= 2*len(q) {
			lit = lit[len(q) : len(lit)-len(q)]
			break
		}
	}
	return strings.TrimSpace(lit)
}
