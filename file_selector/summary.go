package file_selector

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/loopai/embed_data"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageForFile maps a file extension to a supported summary language.
func languageForFile(relPath string) string {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".cs":
		return "csharp"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".java":
		return "java"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	default:
		return ""
	}
}

// summarizeFile extracts the top-level declarations of a source file using
// tree-sitter. The tag order is sorted so the same source always produces the
// same summary: summaries flow into tree fingerprints, and an unstable
// rendering would register as a phantom tree change.
func summarizeFile(relPath string, source []byte) (string, bool) {
	var lang *sitter.Language
	var queryData []byte

	switch languageForFile(relPath) {
	case "csharp":
		lang, queryData = csharp.GetLanguage(), embed_data.CSharpQuery
	case "go":
		lang, queryData = golang.GetLanguage(), embed_data.GoQuery
	case "python":
		lang, queryData = python.GetLanguage(), embed_data.PythonQuery
	case "java":
		lang, queryData = java.GetLanguage(), embed_data.JavaQuery
	case "javascript":
		lang, queryData = javascript.GetLanguage(), embed_data.JavascriptQuery
	case "typescript":
		lang, queryData = typescript.GetLanguage(), embed_data.TypescriptQuery
	default:
		return "", false
	}

	queries := make(map[string]string)
	if err := json.Unmarshal(queryData, &queries); err != nil {
		return "", false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, source)

	tags := make([]string, 0, len(queries))
	for tag := range queries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	elements := []string{relPath}
	for _, tag := range tags {
		query, err := sitter.NewQuery([]byte(queries[tag]), lang)
		if err != nil {
			continue
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", tag, capture.Node.Content(source)))
			}
		}
	}

	if len(elements) == 1 {
		return "", false
	}
	return strings.Join(elements, "\n"), true
}
