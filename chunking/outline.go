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
	"path/filepath"
	"regexp"
	"strings"
)

var (
	scriptFuncVar = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+[\w$]+\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[\w$]+\s*=>)`)
	scriptType    = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?(?:interface|type|enum)\s+[\w$]+`)
)

// Outline lists the declaration signatures of content, one per line, under
// a "# <file> Structure" header. It reports false when the file type has
// no structural rule.
func Outline(path, content string) (string, bool) {
	lang := languageFor(filepath.Ext(path))
	var classify func(line string) string
	switch lang {
	case languagePython:
		classify = classifyPython
	case languageJavaScript, languageTypeScript, languageTSX:
		classify = classifyScript
	case languageGo:
		classify = classifyGo
	default:
		return "", false
	}

	var b strings.Builder
	b.WriteString("# " + filepath.Base(path) + " Structure\n\n")
	found := 0
	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if label := classify(stripped); label != "" {
			b.WriteString("**" + label + "**: " + signature(stripped) + "\n")
			found++
		}
	}
	if found == 0 {
		b.WriteString("No top-level declarations found.\n")
	}
	return b.String(), true
}

func classifyPython(line string) string {
	switch {
	case strings.HasPrefix(line, "class "):
		return "Class"
	case strings.HasPrefix(line, "def _"), strings.HasPrefix(line, "async def _"):
		return ""
	case strings.HasPrefix(line, "def "), strings.HasPrefix(line, "async def "):
		return "Function"
	case strings.HasPrefix(line, "import "), strings.HasPrefix(line, "from "):
		return "Import"
	}
	return ""
}

func classifyScript(line string) string {
	switch {
	case strings.HasPrefix(line, "import "):
		return "Import"
	case scriptFuncVar.MatchString(line):
		return "Function"
	case scriptType.MatchString(line):
		return "Type"
	case strings.HasPrefix(line, "export "):
		return "Export"
	case strings.HasPrefix(line, "function "), strings.HasPrefix(line, "async function "):
		return "Function"
	case strings.HasPrefix(line, "class "), strings.HasPrefix(line, "abstract class "):
		return "Class"
	}
	return ""
}

func classifyGo(line string) string {
	switch {
	case strings.HasPrefix(line, "package "):
		return "Package"
	case strings.HasPrefix(line, "import "):
		return "Import"
	case strings.HasPrefix(line, "func "):
		return "Function"
	case strings.HasPrefix(line, "type "):
		return "Type"
	}
	return ""
}

// signature drops an opening body brace or trailing colon.
func signature(line string) string {
	line = strings.TrimSpace(strings.TrimSuffix(line, "{"))
	return strings.TrimSpace(strings.TrimSuffix(line, ":"))
}
