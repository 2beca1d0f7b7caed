package trace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ExtractSpecifiers parses TypeScript source and returns every statically
// knowable module specifier: static imports, re-exports, string-literal
// dynamic imports, and string-literal require calls. Dynamic imports with
// computed arguments are unrepresentable and silently skipped.
func ExtractSpecifiers(src []byte, path string) ([]string, error) {
	parser := sitter.NewParser()
	if filepath.Ext(path) == ".tsx" {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	var specs []string
	collectSpecifiers(tree.RootNode(), src, &specs)
	return specs, nil
}

func collectSpecifiers(node *sitter.Node, src []byte, specs *[]string) {
	switch node.Type() {
	case "import_statement", "export_statement":
		// export statements without a source clause export local bindings.
		if source := node.ChildByFieldName("source"); source != nil {
			if spec, ok := stringLiteral(source, src); ok {
				*specs = append(*specs, spec)
			}
		}
	case "call_expression":
		if spec, ok := dynamicImportTarget(node, src); ok {
			*specs = append(*specs, spec)
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectSpecifiers(node.NamedChild(i), src, specs)
	}
}

// dynamicImportTarget returns the literal argument of import(...) or
// require(...) calls. Non-literal arguments yield no edge.
func dynamicImportTarget(call *sitter.Node, src []byte) (string, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Type() {
	case "import":
		// import(...) is always a dynamic import.
	case "identifier":
		if fn.Content(src) != "require" {
			return "", false
		}
	default:
		return "", false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}
	return stringLiteral(args.NamedChild(0), src)
}

// stringLiteral unwraps a plain string node. Template strings and any other
// expression are treated as non-literal.
func stringLiteral(node *sitter.Node, src []byte) (string, bool) {
	if node.Type() != "string" {
		return "", false
	}
	content := node.Content(src)
	content = strings.Trim(content, `"'`)
	if content == "" {
		return "", false
	}
	return content, true
}
