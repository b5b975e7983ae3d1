package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/quire/core"
)

// DefaultExtensions are the file types picked up by LoadDirectory.
var DefaultExtensions = []string{
	".py", ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".go",
	".md", ".markdown", ".txt", ".rst",
	".json", ".yaml", ".yml", ".xml", ".html", ".css",
}

var skippedDirs = []string{"node_modules", "__pycache__", "vendor"}

// LoadDirectory reads every file under root whose extension is in
// extensions (DefaultExtensions when empty). Paths are relative to root
// and slash-separated. Hidden entries and dependency directories are
// skipped.
func LoadDirectory(root string, extensions []string) ([]core.SourceFile, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := make([]string, len(extensions))
	for i, ext := range extensions {
		allowed[i] = core.NormalizeExtension(ext)
	}

	var files []core.SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || slices.Contains(skippedDirs, name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		ext := core.NormalizeExtension(filepath.Ext(name))
		if !slices.Contains(allowed, ext) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, core.SourceFile{
			Path:       filepath.ToSlash(rel),
			Content:    strings.ToValidUTF8(string(data), ""),
			Extension:  ext,
			ModifiedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", root, err)
	}
	return files, nil
}
