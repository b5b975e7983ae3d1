package summary

import (
	"regexp"
	"slices"
	"strings"
)

var (
	pyFromImport = regexp.MustCompile(`^from\s+([\w.]+)\s+import\b`)
	pyImport     = regexp.MustCompile(`^import\s+([\w.]+)`)
	jsFrom       = regexp.MustCompile(`\bfrom\s+['"]([^'"]+)['"]`)
	jsBare       = regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`)
	jsRequire    = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	goImport     = regexp.MustCompile(`^(?:import\s+)?(?:[\w.]+\s+)?"([^"]+)"`)
)

// Dependencies extracts module names from import statements, de-duplicated
// in first-seen order.
func Dependencies(imports []string) []string {
	var deps []string
	for _, line := range imports {
		module := moduleOf(strings.TrimSpace(line))
		if module != "" && !slices.Contains(deps, module) {
			deps = append(deps, module)
		}
	}
	return deps
}

func moduleOf(line string) string {
	for _, re := range []*regexp.Regexp{pyFromImport, jsFrom, jsRequire, jsBare, goImport, pyImport} {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}
