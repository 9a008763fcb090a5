package parser

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/orizon-lang/wasmast/internal/ast"
	"github.com/orizon-lang/wasmast/internal/errors"
)

func mustParse(t *testing.T, input string, options Options) *ast.Program {
	t.Helper()
	program, err := Parse(input, options)
	if err != nil {
		t.Fatalf("unexpected parser error: %v", err)
	}
	return program
}

func firstFunction(t *testing.T, program *ast.Program) *ast.Function {
	t.Helper()
	if len(program.Body) == 0 {
		t.Fatal("expected at least one declaration")
	}
	fn, ok := program.Body[0].(*ast.Function)
	if !ok {
		t.Fatalf("expected Function, got %T", program.Body[0])
	}
	return fn
}

func decodeJSON(t *testing.T, data []byte) interface{} {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("invalid JSON %s: %v", data, err)
	}
	return out
}

// assertJSON compares the JSON encoding of v with expected, ignoring
// formatting and key order.
func assertJSON(t *testing.T, v interface{}, expected string) {
	t.Helper()
	got, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !reflect.DeepEqual(decodeJSON(t, got), decodeJSON(t, []byte(expected))) {
		t.Fatalf("AST mismatch.\nexpected=%s\ngot=%s", expected, got)
	}
}

func expectSemantic(t *testing.T, err error, code errors.Code) *errors.SemanticError {
	t.Helper()
	var se *errors.SemanticError
	if !stderrors.As(err, &se) {
		t.Fatalf("expected %s, got %v", code, err)
	}
	if se.Code != code {
		t.Fatalf("expected %s, got %s (%v)", code, se.Code, err)
	}
	return se
}

func TestParseBasicFunction(t *testing.T) {
	input := `
      i64 mul(i32 a, i32 b) {
        return i64.mul(i64.extend_u(a), i64.extend_u(b));
      }`

	program := mustParse(t, input, Options{})

	assertJSON(t, program, `{
	  "kind": "Program",
	  "body": [{
	    "kind": "Function",
	    "localCount": 0,
	    "name": {"kind": "Identifier", "name": "mul"},
	    "params": [
	      {"kind": "ParamDeclaration", "result": {"kind": "Type", "name": "i32"}, "name": {"kind": "Identifier", "name": "a"}},
	      {"kind": "ParamDeclaration", "result": {"kind": "Type", "name": "i32"}, "name": {"kind": "Identifier", "name": "b"}}
	    ],
	    "result": {"kind": "Type", "name": "i64"},
	    "body": [{
	      "kind": "ReturnStatement",
	      "argument": {
	        "kind": "Builtin",
	        "result": {"kind": "Type", "name": "i64"},
	        "method": "mul",
	        "arguments": [
	          {"kind": "Builtin", "result": {"kind": "Type", "name": "i64"}, "method": "extend_u",
	           "arguments": [{"kind": "Identifier", "name": "a"}]},
	          {"kind": "Builtin", "result": {"kind": "Type", "name": "i64"}, "method": "extend_u",
	           "arguments": [{"kind": "Identifier", "name": "b"}]}
	        ]
	      }
	    }]
	  }]
	}`)
}

func TestParseIndexParams(t *testing.T) {
	input := `
      i64 second(i32 a, i32 b, i32 c) {
        return b;
      }`

	program := mustParse(t, input, Options{Index: true})

	assertJSON(t, program, `{
	  "kind": "Program",
	  "body": [{
	    "kind": "Function",
	    "localCount": 0,
	    "name": {"kind": "FunctionRef", "name": "second", "index": 0},
	    "params": [
	      {"kind": "ParamDeclaration", "result": {"kind": "Type", "name": "i32"}, "name": {"kind": "Param", "name": "a", "index": 0}},
	      {"kind": "ParamDeclaration", "result": {"kind": "Type", "name": "i32"}, "name": {"kind": "Param", "name": "b", "index": 1}},
	      {"kind": "ParamDeclaration", "result": {"kind": "Type", "name": "i32"}, "name": {"kind": "Param", "name": "c", "index": 2}}
	    ],
	    "result": {"kind": "Type", "name": "i64"},
	    "body": [{"kind": "ReturnStatement", "argument": {"kind": "Param", "name": "b", "index": 1}}]
	  }]
	}`)
}

func literalArgument(t *testing.T, input string) *ast.Literal {
	t.Helper()
	fn := firstFunction(t, mustParse(t, input, Options{}))
	ret, ok := fn.Body[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected ReturnStatement, got %T", fn.Body[0])
	}
	builtin, ok := ret.Argument.(*ast.Builtin)
	if !ok {
		t.Fatalf("expected Builtin, got %T", ret.Argument)
	}
	lit, ok := builtin.Arguments[0].(*ast.Literal)
	if !ok {
		t.Fatalf("expected Literal, got %T", builtin.Arguments[0])
	}
	return lit
}

func TestParseIntegerLiterals(t *testing.T) {
	tests := []struct {
		literal  string
		expected string // base 16
	}{
		{"1", "1"},
		{"0xdeadbeefABBADEAD", "deadbeefabbadead"},
		{"0XFFFF_FFFF_FFFF_FFFF", "ffffffffffffffff"},
		{"-0x10", "-10"},
		{"1_000_000", "f4240"},
		{"+42", "2a"},
		{"-9223372036854775808", "-8000000000000000"},
		{"18446744073709551615", "ffffffffffffffff"},
	}

	for i, tt := range tests {
		lit := literalArgument(t, `i64 f() { return i64.const(`+tt.literal+`); }`)
		if lit.LiteralKind != ast.LiteralInt {
			t.Fatalf("tests[%d] - expected integer literal for %s", i, tt.literal)
		}
		want, _ := new(big.Int).SetString(tt.expected, 16)
		if lit.Int.Cmp(want) != 0 {
			t.Fatalf("tests[%d] - value wrong. expected=%s, got=%s", i, want, lit.Int)
		}
	}
}

func TestParse64BitLiteralJSON(t *testing.T) {
	lit := literalArgument(t, `i64 f() { return i64.const(0xdeadbeefABBADEAD); }`)
	assertJSON(t, lit, `{"kind": "Literal", "value": 16045690983978557101}`)
}

func TestParseFloatLiterals(t *testing.T) {
	tests := []struct {
		literal  string
		expected float64
	}{
		{"1.", 1},
		{"123.456", 123.456},
		{"123.456e1", 1234.56},
		{"123.456e+1", 1234.56},
		{"123.456e-1", 12.3456},
		{"-2.5", -2.5},
		{"1e3", 1000},
	}

	for i, tt := range tests {
		lit := literalArgument(t, `f64 f() { return f64.const(`+tt.literal+`); }`)
		if lit.LiteralKind != ast.LiteralFloat {
			t.Fatalf("tests[%d] - expected float literal for %s", i, tt.literal)
		}
		if lit.Float != tt.expected {
			t.Fatalf("tests[%d] - value wrong. expected=%v, got=%v", i, tt.expected, lit.Float)
		}
	}
}

func TestParseSequenceExpression(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      i64 mul() {
        return (i64.const(1), i64.const(2), i64.const(3));
      }`, Options{}))

	ret := fn.Body[0].(*ast.ReturnStatement)
	seq, ok := ret.Argument.(*ast.SequenceExpression)
	if !ok {
		t.Fatalf("expected SequenceExpression, got %T", ret.Argument)
	}
	if len(seq.Expressions) != 3 {
		t.Fatalf("expected 3 expressions, got %d", len(seq.Expressions))
	}
	for i, expr := range seq.Expressions {
		b, ok := expr.(*ast.Builtin)
		if !ok || b.Method != "const" {
			t.Fatalf("expressions[%d] - expected i64.const, got %#v", i, expr)
		}
		if v := b.Arguments[0].(*ast.Literal).Int.Int64(); v != int64(i+1) {
			t.Fatalf("expressions[%d] - expected %d, got %d", i, i+1, v)
		}
	}
}

func TestParseGroupedExpression(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `i64 f(i64 a) { return ((a)); }`, Options{}))
	ret := fn.Body[0].(*ast.ReturnStatement)
	if id, ok := ret.Argument.(*ast.Identifier); !ok || id.Name != "a" {
		t.Fatalf("expected plain identifier, got %#v", ret.Argument)
	}
}

func TestParseVariableDeclaration(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void mul() {
        i64 a = i64.const(1);
        i64 b;
      }`, Options{}))

	assertJSON(t, fn.Body, `[
	  {
	    "kind": "VariableDeclaration",
	    "id": {"kind": "Identifier", "name": "a"},
	    "result": {"kind": "Type", "name": "i64"},
	    "init": {"kind": "Builtin", "result": {"kind": "Type", "name": "i64"}, "method": "const",
	             "arguments": [{"kind": "Literal", "value": 1}]}
	  },
	  {
	    "kind": "VariableDeclaration",
	    "id": {"kind": "Identifier", "name": "b"},
	    "result": {"kind": "Type", "name": "i64"},
	    "init": null
	  }
	]`)

	if fn.LocalCount != 2 {
		t.Fatalf("expected localCount 2, got %d", fn.LocalCount)
	}
}

func TestParseAssignmentExpression(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void mul() {
        a = b = c;
      }`, Options{}))

	assertJSON(t, fn.Body, `[{
	  "kind": "ExpressionStatement",
	  "expression": {
	    "kind": "AssignmentExpression",
	    "operator": "=",
	    "left": {"kind": "Identifier", "name": "a"},
	    "right": {
	      "kind": "AssignmentExpression",
	      "operator": "=",
	      "left": {"kind": "Identifier", "name": "b"},
	      "right": {"kind": "Identifier", "name": "c"}
	    }
	  }
	}]`)
}

func TestParseEmptyReturn(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `void mul() { return; }`, Options{}))
	assertJSON(t, fn.Body, `[{"kind": "ReturnStatement", "argument": null}]`)
}

func TestParseIfStatement(t *testing.T) {
	expected := func(consequent string) string {
		return `[{
		  "kind": "IfStatement",
		  "test": {"kind": "Identifier", "name": "a"},
		  "consequent": ` + consequent + `,
		  "alternate": {
		    "kind": "ReturnStatement",
		    "argument": {"kind": "Builtin", "result": {"kind": "Type", "name": "i64"}, "method": "const",
		                 "arguments": [{"kind": "Literal", "value": 1}]}
		  }
		}]`
	}

	tests := []struct {
		name       string
		input      string
		consequent string
	}{
		{
			name: "block",
			input: `
      i64 mul(i64 a) {
        if (a) {
          return a;
        } else
          return i64.const(1);
      }`,
			consequent: `{"kind": "BlockStatement", "body": [{"kind": "ReturnStatement", "argument": {"kind": "Identifier", "name": "a"}}]}`,
		},
		{
			name: "blockless",
			input: `
      i64 mul(i64 a) {
        if (a)
          return a;
        else
          return i64.const(1);
      }`,
			consequent: `{"kind": "ReturnStatement", "argument": {"kind": "Identifier", "name": "a"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := firstFunction(t, mustParse(t, tt.input, Options{}))
			assertJSON(t, fn.Body, expected(tt.consequent))
		})
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void f(i32 a) {
        if (a) { a = i32.const(0); }
        return;
      }`, Options{Index: true}))

	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body))
	}
	stmt := fn.Body[0].(*ast.IfStatement)
	if stmt.Alternate != nil {
		t.Fatalf("expected no alternate, got %#v", stmt.Alternate)
	}
}

func TestParseForeverLoop(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      i64 mul() {
        i64 t = i64.const(1);
        forever {
          t = i64.add(t, t);
        }

        // Not going to happen
        return t;
      }`, Options{}))

	assertJSON(t, fn.Body, `[
	  {
	    "kind": "VariableDeclaration",
	    "id": {"kind": "Identifier", "name": "t"},
	    "result": {"kind": "Type", "name": "i64"},
	    "init": {"kind": "Builtin", "result": {"kind": "Type", "name": "i64"}, "method": "const",
	             "arguments": [{"kind": "Literal", "value": 1}]}
	  },
	  {
	    "kind": "ForeverStatement",
	    "body": {
	      "kind": "BlockStatement",
	      "body": [{
	        "kind": "ExpressionStatement",
	        "expression": {
	          "kind": "AssignmentExpression",
	          "operator": "=",
	          "left": {"kind": "Identifier", "name": "t"},
	          "right": {"kind": "Builtin", "result": {"kind": "Type", "name": "i64"}, "method": "add",
	                    "arguments": [{"kind": "Identifier", "name": "t"}, {"kind": "Identifier", "name": "t"}]}
	        }
	      }]
	    }
	  },
	  {"kind": "ReturnStatement", "argument": {"kind": "Identifier", "name": "t"}}
	]`)
}

func TestParseForeverBreakContinue(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void mul() {
        forever {
          continue;
          break;
        }
      }`, Options{}))

	assertJSON(t, fn.Body, `[{
	  "kind": "ForeverStatement",
	  "body": {"kind": "BlockStatement", "body": [{"kind": "ContinueStatement"}, {"kind": "BreakStatement"}]}
	}]`)
}

func TestParseDoWhileLoop(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void mul(i64 a) {
        do {
        } while (a);
      }`, Options{}))

	assertJSON(t, fn.Body, `[{
	  "kind": "DoWhileStatement",
	  "body": {"kind": "BlockStatement", "body": []},
	  "test": {"kind": "Identifier", "name": "a"}
	}]`)
}

func TestParseBuiltinStatement(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void mul(i64 a) {
        addr.page_size();
      }`, Options{}))

	assertJSON(t, fn.Body, `[{
	  "kind": "ExpressionStatement",
	  "expression": {"kind": "Builtin", "result": {"kind": "Type", "name": "addr"}, "method": "page_size", "arguments": []}
	}]`)
}

func TestParseCallStatement(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      void mul(i64 a) {
        test(a);
      }
      void test(i64 a) {
      }`, Options{Index: true}))

	assertJSON(t, fn.Body, `[{
	  "kind": "ExpressionStatement",
	  "expression": {
	    "kind": "CallExpression",
	    "fn": {"kind": "FunctionRef", "name": "test", "index": 1},
	    "arguments": [{"kind": "Param", "name": "a", "index": 0}]
	  }
	}]`)
}

func TestForwardReference(t *testing.T) {
	program := mustParse(t, `
      void a() { b(); }
      void c() { }
      void b() { a(); }`, Options{Index: true})

	call := firstFunction(t, program).Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	ref := call.Fn.(*ast.FunctionRef)

	b := program.Body[2].(*ast.Function).Name.(*ast.FunctionRef)
	if ref.Index != b.Index || b.Name != "b" {
		t.Fatalf("call site %+v does not match declaration %+v", ref, b)
	}
	if c := program.Body[1].(*ast.Function).Name.(*ast.FunctionRef); c.Index != 2 {
		t.Fatalf("expected c to get index 2, got %d", c.Index)
	}
}

func TestSelfRecursion(t *testing.T) {
	program := mustParse(t, `i32 f(i32 n) { return f(n); }`, Options{Index: true})
	ret := firstFunction(t, program).Body[0].(*ast.ReturnStatement)
	if ref := ret.Argument.(*ast.CallExpression).Fn.(*ast.FunctionRef); ref.Index != 0 {
		t.Fatalf("expected self reference index 0, got %d", ref.Index)
	}
}

func TestUnresolvedForwardReference(t *testing.T) {
	_, err := Parse(`void a() { b(); c(); }`, Options{Index: true})
	se := expectSemantic(t, err, errors.CodeUnresolvedReferences)
	if !reflect.DeepEqual(se.Names, []string{"b", "c"}) {
		t.Fatalf("expected [b c], got %v", se.Names)
	}

	// Syntax-only parsing does not resolve names.
	if _, err := Parse(`void a() { b(); }`, Options{}); err != nil {
		t.Fatalf("unexpected error without index: %v", err)
	}
}

func TestUndefinedVariable(t *testing.T) {
	_, err := Parse(`i32 f() { return x; }`, Options{Index: true})
	se := expectSemantic(t, err, errors.CodeUnresolvedReferences)
	if se.Offset != 17 {
		t.Fatalf("expected offset 17, got %d", se.Offset)
	}
}

func TestLoopControlOutsideLoop(t *testing.T) {
	tests := []string{
		`void f() { break; }`,
		`void f() { continue; }`,
		`void f() { forever { } break; }`,
		`void f(i32 a) { if (a) break; }`,
	}

	for i, input := range tests {
		_, err := Parse(input, Options{})
		var se *errors.SemanticError
		if !stderrors.As(err, &se) || se.Code != errors.CodeLoopControlOutsideLoop {
			t.Fatalf("tests[%d] - expected loop control error, got %v", i, err)
		}
	}
}

func TestNestedLoopsRestoreDepth(t *testing.T) {
	input := `
      void f(i32 a) {
        forever {
          do {
            continue;
          } while (a);
          break;
          if (a) continue;
        }
      }`
	if _, err := Parse(input, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTypeRestrictions(t *testing.T) {
	tests := []struct {
		input   string
		name    string
		context string
	}{
		{`addr foo() {}`, "addr", "return type"},
		{`void foo(addr a) {}`, "addr", "parameter type"},
		{`void foo(void a) {}`, "void", "parameter type"},
		{`void foo() { void x; }`, "void", "variable type"},
		{`void foo() { addr x; }`, "addr", "variable type"},
	}

	for i, tt := range tests {
		_, err := Parse(tt.input, Options{})
		var se *errors.SemanticError
		if !stderrors.As(err, &se) || se.Code != errors.CodeInvalidType {
			t.Fatalf("tests[%d] - expected invalid type, got %v", i, err)
		}
		if se.Name != tt.name || se.Context != tt.context {
			t.Fatalf("tests[%d] - expected %s/%s, got %s/%s", i, tt.name, tt.context, se.Name, se.Context)
		}
	}
}

func TestImportShadowing(t *testing.T) {
	program := mustParse(t, `
      import f from m;
      void main() { f(i32.const(1)); }
      void f(i32 x) { }`, Options{Index: true})

	imp := program.Body[0].(*ast.ImportStatement)
	if imp.Module.Name != "m" || len(imp.Names) != 1 || imp.Names[0].Name != "f" {
		t.Fatalf("import wrong: %#v", imp)
	}

	main := program.Body[1].(*ast.Function)
	call := main.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	assertJSON(t, call.Fn, `{"kind": "External", "module": "m", "name": "f"}`)
}

func TestImportWithoutIndex(t *testing.T) {
	program := mustParse(t, `import a, b from env; void main() { b(); }`, Options{})
	call := program.Body[1].(*ast.Function).Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	if ext, ok := call.Fn.(*ast.External); !ok || ext.Module != "env" || ext.Name != "b" {
		t.Fatalf("expected external env::b, got %#v", call.Fn)
	}
}

func TestDuplicateImport(t *testing.T) {
	tests := []string{
		`import f from m; import f from n;`,
		`import f, f from m;`,
	}
	for i, input := range tests {
		_, err := Parse(input, Options{})
		var se *errors.SemanticError
		if !stderrors.As(err, &se) || se.Code != errors.CodeDuplicateImport || se.Name != "f" {
			t.Fatalf("tests[%d] - expected duplicate import of f, got %v", i, err)
		}
	}
}

func TestQualifiedCall(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `void f(i32 x) { env::print(x); }`, Options{Index: true}))
	assertJSON(t, fn.Body, `[{
	  "kind": "ExpressionStatement",
	  "expression": {
	    "kind": "CallExpression",
	    "fn": {"kind": "External", "module": "env", "name": "print"},
	    "arguments": [{"kind": "Param", "name": "x", "index": 0}]
	  }
	}]`)
}

func TestExport(t *testing.T) {
	program := mustParse(t, `
      export main, helper;
      void helper() {}
      void main() { helper(); }`, Options{Index: true})

	assertJSON(t, program.Body[0], `{
	  "kind": "ExportStatement",
	  "names": [{"kind": "FunctionRef", "name": "main", "index": 0},
	            {"kind": "FunctionRef", "name": "helper", "index": 1}]
	}`)

	_, err := Parse(`export missing;`, Options{Index: true})
	expectSemantic(t, err, errors.CodeUnresolvedReferences)
}

func TestRedeclaration(t *testing.T) {
	tests := []string{
		`void f() {} void f() {}`,
		`void f(i32 a, i32 a) {}`,
		`void f(i32 a) { i32 a; }`,
		`void f() { i32 x; forever { i32 x; } }`,
	}
	for i, input := range tests {
		_, err := Parse(input, Options{Index: true})
		var se *errors.SemanticError
		if !stderrors.As(err, &se) || se.Code != errors.CodeRedeclaration {
			t.Fatalf("tests[%d] - expected redeclaration, got %v", i, err)
		}
	}

	// Parameters may shadow top-level function names.
	if _, err := Parse(`void a() {} void f(i32 a) { a = a; }`, Options{Index: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKindMismatch(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		actual   string
	}{
		{`void f(i32 p) { p(); }`, "FunctionRef", "Param"},
		{`void f() { i32 x; x(); }`, "FunctionRef", "Local"},
		{`i32 g() { return g; }`, "Param or Local", "FunctionRef"},
	}
	for i, tt := range tests {
		_, err := Parse(tt.input, Options{Index: true})
		var se *errors.SemanticError
		if !stderrors.As(err, &se) || se.Code != errors.CodeKindMismatch {
			t.Fatalf("tests[%d] - expected kind mismatch, got %v", i, err)
		}
		if se.ExpectedKind != tt.expected || se.ActualKind != tt.actual {
			t.Fatalf("tests[%d] - kinds wrong: %+v", i, se)
		}
	}
}

func TestLocalIndices(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `
      i32 f(i32 a, i32 b) {
        i32 x = a;
        if (a) { i32 y = b; }
        x = y;
        return x;
      }`, Options{Index: true}))

	if fn.LocalCount != 2 {
		t.Fatalf("expected localCount 2, got %d", fn.LocalCount)
	}
	assign := fn.Body[2].(*ast.ExpressionStatement).Expression.(*ast.AssignmentExpression)
	assertJSON(t, assign, `{
	  "kind": "AssignmentExpression", "operator": "=",
	  "left": {"kind": "Local", "name": "x", "index": 0},
	  "right": {"kind": "Local", "name": "y", "index": 1}
	}`)
}

func TestInitializerCannotSeeItself(t *testing.T) {
	_, err := Parse(`void f() { i32 x = x; }`, Options{Index: true})
	expectSemantic(t, err, errors.CodeUnresolvedReferences)
}

func TestStraySemicolons(t *testing.T) {
	program := mustParse(t, `;; void f() { ;; return;; ; } ;`, Options{})
	if len(program.Body) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(program.Body))
	}
	if n := len(firstFunction(t, program).Body); n != 1 {
		t.Fatalf("expected 1 statement, got %d", n)
	}
}

func TestNestedBlockStatement(t *testing.T) {
	fn := firstFunction(t, mustParse(t, `void f() { { return; } }`, Options{}))
	if _, ok := fn.Body[0].(*ast.BlockStatement); !ok {
		t.Fatalf("expected BlockStatement, got %T", fn.Body[0])
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		found    string
		offset   int
	}{
		{`void f() { return }`, "expression", `Punctuation "}"`, 18},
		{`i32 f() { return 1 }`, "Punctuation", `Punctuation "}"`, 19},
		{`f() {}`, "function, import or export", `Identifier "f"`, 0},
		{`void f() { else; }`, "statement", `Keyword "else"`, 11},
		{`void f() { return ,; }`, "expression", `Punctuation ","`, 18},
		{`void f() { i32.(); }`, "builtin method", `Punctuation "("`, 15},
		{`import a to m;`, "Identifier", `Identifier "to"`, 9},
		{`void f() { do { } (a); }`, "Keyword", `Punctuation "("`, 18},
		{`void f() { i32 addressof = i32.const(1); }`, "Punctuation", `Keyword "addressof"`, 15},
		{`import a FROM m;`, "Identifier", `Identifier "FROM"`, 9},
		{`f64 f() { return f64.const(1e400); }`, "float literal within f64 range", `Literal "1e400"`, 27},
	}

	for i, tt := range tests {
		_, err := Parse(tt.input, Options{})
		var se *errors.SyntaxError
		if !stderrors.As(err, &se) {
			t.Fatalf("tests[%d] - expected SyntaxError, got %v", i, err)
		}
		if se.Expected != tt.expected || se.Found != tt.found || se.Offset != tt.offset {
			t.Fatalf("tests[%d] - error wrong. expected=%s/%s/%d, got=%s/%s/%d",
				i, tt.expected, tt.found, tt.offset, se.Expected, se.Found, se.Offset)
		}
	}
}

func TestIncompleteInput(t *testing.T) {
	tests := []string{
		`void f() {`,
		`void f(i32 a`,
		`void f() { return i64.add(a,`,
		`import a, b from`,
	}
	for i, input := range tests {
		_, err := Parse(input, Options{})
		if !errors.IsIncomplete(err) {
			t.Fatalf("tests[%d] - expected incomplete input error, got %v", i, err)
		}
	}
}

func TestLexErrorPropagates(t *testing.T) {
	_, err := Parse(`void f() { # }`, Options{})
	var le *errors.LexError
	if !stderrors.As(err, &le) || le.Offset != 11 {
		t.Fatalf("expected LexError at 11, got %v", err)
	}
}

func TestEmptyProgram(t *testing.T) {
	program := mustParse(t, "  // nothing here\n", Options{Index: true})
	if len(program.Body) != 0 {
		t.Fatalf("expected empty body, got %d", len(program.Body))
	}
}
