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
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/poiesic/quire/core"
)

func parseGo(src string) ([]segment, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	offset := func(p token.Pos) int { return fset.Position(p).Offset }

	var segs []segment
	clauseStart := file.Package
	if file.Doc != nil {
		clauseStart = file.Doc.Pos()
	}
	segs = append(segs, segment{kind: core.ChunkKindRaw, start: offset(clauseStart), end: offset(file.Name.End())})

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			start := d.Pos()
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
			segs = append(segs, segment{
				kind:  core.ChunkKindFunction,
				name:  goFuncName(d),
				doc:   d.Doc.Text(),
				start: offset(start),
				end:   offset(d.End()),
			})
		case *ast.GenDecl:
			start := d.Pos()
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
			switch d.Tok {
			case token.IMPORT:
				segs = appendGrouped(segs, core.ChunkKindImport, offset(start), offset(d.End()))
			case token.TYPE:
				segs = append(segs, segment{
					kind:  core.ChunkKindClass,
					name:  goTypeName(d),
					doc:   d.Doc.Text(),
					start: offset(start),
					end:   offset(d.End()),
				})
			default:
				segs = appendGrouped(segs, core.ChunkKindRaw, offset(start), offset(d.End()))
			}
		}
	}
	return segs, nil
}

func goFuncName(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return d.Name.Name
	}
	if recv := receiverType(d.Recv.List[0].Type); recv != "" {
		return recv + "." + d.Name.Name
	}
	return d.Name.Name
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	}
	return ""
}

func goTypeName(d *ast.GenDecl) string {
	for _, spec := range d.Specs {
		if ts, ok := spec.(*ast.TypeSpec); ok {
			return ts.Name.Name
		}
	}
	return ""
}
