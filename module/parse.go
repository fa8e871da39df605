package module

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// parseModuleSource parses src in ECMAScript module grammar (supporting
// import/export statement forms), the AST goja.ModuleFromAST needs to
// build a source ModuleRecord.
func parseModuleSource(name, src string) (*ast.Program, error) {
	return parser.ParseFile(nil, name, src, parser.IsModule)
}
