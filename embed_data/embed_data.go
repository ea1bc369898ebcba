package embed_data

import (
	_ "embed"
)

//go:embed prompts/diff_style_prompt.tmpl
var DiffStylePrompt []byte

//go:embed prompts/whole_style_prompt.tmpl
var WholeStylePrompt []byte

//go:embed models_details/models.json
var ModelDetails []byte

//go:embed tree-sitter/queries/csharp.json
var CSharpQuery []byte

//go:embed tree-sitter/queries/go.json
var GoQuery []byte

//go:embed tree-sitter/queries/java.json
var JavaQuery []byte

//go:embed tree-sitter/queries/javascript.json
var JavascriptQuery []byte

//go:embed tree-sitter/queries/python.json
var PythonQuery []byte

//go:embed tree-sitter/queries/typescript.json
var TypescriptQuery []byte
