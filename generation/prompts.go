package generation

import (
	"fmt"
	"strings"

	"github.com/poiesic/quire/chunking"
)

func filePrompt(path, ext, content string) string {
	var b strings.Builder
	switch chunking.LanguageName(ext) {
	case "Python":
		b.WriteString("Analyze this Python file and generate comprehensive documentation:\n\n")
		fmt.Fprintf(&b, "File: %s\n\nCode:\n```python\n%s\n```\n\n", path, content)
		b.WriteString("Please provide:\n")
		b.WriteString("1. **File Overview**: Brief description of what this file does\n")
		b.WriteString("2. **Functions**: List all functions with descriptions, parameters, and return values\n")
		b.WriteString("3. **Classes**: List all classes with descriptions and their methods\n")
		b.WriteString("4. **Imports**: Explain what external dependencies this file uses\n")
		b.WriteString("5. **Key Features**: Main functionality and purpose\n")
		b.WriteString("6. **Usage Examples**: How to use the main functions/classes\n")
		b.WriteString("7. **Dependencies**: What other files this might depend on\n")
	case "JavaScript", "TypeScript":
		b.WriteString("Analyze this JavaScript/TypeScript file and generate comprehensive documentation:\n\n")
		fmt.Fprintf(&b, "File: %s\n\nCode:\n```javascript\n%s\n```\n\n", path, content)
		b.WriteString("Please provide:\n")
		b.WriteString("1. **File Overview**: Brief description of what this file does\n")
		b.WriteString("2. **Functions**: List all functions with descriptions, parameters, and return values\n")
		b.WriteString("3. **Classes/Components**: List all classes or React components with descriptions\n")
		b.WriteString("4. **Exports**: What this file exports and how to import it\n")
		b.WriteString("5. **Key Features**: Main functionality and purpose\n")
		b.WriteString("6. **Usage Examples**: How to use the main functions/components\n")
		b.WriteString("7. **Dependencies**: What external libraries or files this depends on\n")
	default:
		b.WriteString("Analyze this file and generate documentation:\n\n")
		fmt.Fprintf(&b, "File: %s\n\nContent:\n```%s\n%s\n```\n\n", path, fence(ext), content)
		b.WriteString("Please provide:\n")
		b.WriteString("1. **File Overview**: Brief description of what this file contains\n")
		b.WriteString("2. **Main Purpose**: What this file is used for\n")
		b.WriteString("3. **Key Information**: Important details or instructions\n")
		b.WriteString("4. **Structure**: How the content is organized\n")
	}
	b.WriteString("\nFormat the response as structured markdown.\n")
	return b.String()
}

func chunkPrompt(path, ext, content string, index, total int) string {
	var b strings.Builder
	b.WriteString("Analyze this code chunk and generate documentation:\n\n")
	fmt.Fprintf(&b, "File: %s\nChunk %d of %d\n\n", path, index+1, total)
	fmt.Fprintf(&b, "Code:\n```%s\n%s\n```\n\n", fence(ext), content)
	b.WriteString("Please provide:\n")
	b.WriteString("1. **Overview**: What this chunk does\n")
	b.WriteString("2. **Functions/Classes**: List any functions or classes\n")
	b.WriteString("3. **Key Logic**: Important implementation details\n")
	b.WriteString("4. **Dependencies**: What this chunk depends on\n\n")
	b.WriteString("Keep it concise and focused on this specific chunk.\n")
	return b.String()
}

// fence returns the code fence info string for ext.
func fence(ext string) string {
	switch chunking.LanguageName(ext) {
	case "Python":
		return "python"
	case "JavaScript", "TypeScript":
		return "javascript"
	case "Go":
		return "go"
	}
	return ""
}
