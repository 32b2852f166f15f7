package probe

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// GoComplexity computes cyclomatic complexity for Go sources. The score is
// 1 plus the number of decision points (branches, loops, case clauses, and
// short-circuit operators) in the function body.
type GoComplexity struct {
	// Log receives per-file skip warnings; nil falls back to slog.Default.
	Log *slog.Logger
}

func (c GoComplexity) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// Complexity walks path (a file or a directory tree) and scores every
// function declaration found. Test files and vendored code are skipped. A
// file that fails to parse loses only its own scores; the probe errors only
// when no file in the tree was parseable.
func (c GoComplexity) Complexity(ctx context.Context, path string) ([]FunctionComplexity, error) {
	var files []string
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, ".go") && !strings.HasSuffix(p, "_test.go") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, Unavailable("complexity", err)
	}

	var out []FunctionComplexity
	var parsedFiles int
	var firstParseErr error
	fset := token.NewFileSet()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parsed, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
		if err != nil {
			if firstParseErr == nil {
				firstParseErr = err
			}
			c.logger().Warn("skipping unparsable source file", "file", file, "err", err)
			continue
		}
		parsedFiles++
		for _, decl := range parsed.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				continue
			}
			out = append(out, FunctionComplexity{
				Function: funcName(fn),
				Score:    cyclomatic(fn.Body),
				Kind:     funcKind(fn),
			})
		}
	}
	if len(files) > 0 && parsedFiles == 0 {
		return nil, &MalformedOutputError{Source: "complexity", Detail: firstParseErr.Error()}
	}
	return out, nil
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		return recvTypeName(fn.Recv.List[0].Type) + "." + fn.Name.Name
	}
	return fn.Name.Name
}

func funcKind(fn *ast.FuncDecl) string {
	if fn.Recv != nil {
		return "method"
	}
	return "function"
}

func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.IndexExpr:
		return recvTypeName(t.X)
	case *ast.IndexListExpr:
		return recvTypeName(t.X)
	default:
		return ""
	}
}

func cyclomatic(body *ast.BlockStmt) int {
	score := 1
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			score++
		case *ast.CaseClause:
			// The default clause adds no branch.
			if n.List != nil {
				score++
			}
		case *ast.CommClause:
			if n.Comm != nil {
				score++
			}
		case *ast.BinaryExpr:
			if n.Op == token.LAND || n.Op == token.LOR {
				score++
			}
		}
		return true
	})
	return score
}
