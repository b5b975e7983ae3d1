package summary

import (
	"testing"

	"github.com/poiesic/quire/core"
	"github.com/stretchr/testify/assert"
)

func TestFallback(t *testing.T) {
	got := Fallback("app.py", "content", pyChunks)
	expected := "# app.py\n\n" +
		"**Classes**: Config\n\n" +
		"**Functions**: create_app, main\n\n" +
		"**Dependencies**: os, flask\n"
	assert.Equal(t, expected, got)
}

func TestFallback_OmitsEmptySections(t *testing.T) {
	chunks := []core.StructuralChunk{
		{Kind: core.ChunkKindFunction, Name: "run", Content: "def run(): pass"},
	}
	assert.Equal(t, "# job.py\n\n**Functions**: run\n\n", Fallback("job.py", "def run(): pass", chunks))
}

func TestFallback_NoStructure(t *testing.T) {
	chunks := []core.StructuralChunk{{Kind: core.ChunkKindRaw, Content: "a\nb"}}
	assert.Equal(t, "# notes.txt\n\n2 lines, 3 characters.\n", Fallback("notes.txt", "a\nb", chunks))
}

func TestFallback_LimitsClasses(t *testing.T) {
	var chunks []core.StructuralChunk
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		chunks = append(chunks, core.StructuralChunk{Kind: core.ChunkKindClass, Name: name, Content: "x"})
	}
	assert.Equal(t, "# m.py\n\n**Classes**: A, B, C, D, E\n\n", Fallback("m.py", "x", chunks))
}

func TestDependencies(t *testing.T) {
	tests := []struct {
		name     string
		imports  []string
		expected []string
	}{
		{"python", []string{"import os", "import os.path", "from collections import OrderedDict"}, []string{"os", "os.path", "collections"}},
		{"javascript", []string{"import React from 'react';", "import './styles.css';", "const fs = require('fs');"}, []string{"react", "./styles.css", "fs"}},
		{"typescript named", []string{`import { Foo } from "@app/foo";`}, []string{"@app/foo"}},
		{"go block", []string{"import (", `"fmt"`, `log "log/slog"`, ")"}, []string{"fmt", "log/slog"}},
		{"go single", []string{`import "context"`}, []string{"context"}},
		{"dedup", []string{"import os", "import os"}, []string{"os"}},
		{"none", []string{"# comment"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Dependencies(tt.imports))
		})
	}
}
