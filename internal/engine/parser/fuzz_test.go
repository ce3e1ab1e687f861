// # internal/engine/parser/fuzz_test.go
package parser

import (
	"testing"
)

// checkScopeResolution asserts the structural guarantee extraction makes on
// any input: member-kind records always resolve to a class in their file.
func checkScopeResolution(t *testing.T, file *FileMap) {
	t.Helper()
	for i := range file.Symbols {
		sym := &file.Symbols[i]
		switch sym.Kind {
		case KindMethod, KindClassMethod, KindStaticMethod, KindConstructor:
			if file.EnclosingClass(sym) == nil {
				t.Errorf("member %s (%s) has no enclosing class", sym.Name, sym.Kind)
			}
		}
	}
}

func FuzzParsePython(f *testing.F) {
	p := newTestParser(f)

	f.Add([]byte("def main():\n    print(\"hello\")\n\nif __name__ == \"__main__\":\n    main()\n"))
	f.Add([]byte("from . import util\n\nclass Box:\n    def __init__(self):\n        self.v = None\n"))
	f.Add([]byte("import importlib\nmod = importlib.import_module(\"a\" + \"b\")\n"))
	f.Add([]byte("def broken(:\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		file, err := p.ParseFile("fuzz.py", data)
		if err != nil {
			t.Fatalf("extraction must degrade to diagnostics, not errors: %v", err)
		}
		if file == nil {
			t.Fatal("nil file map without error")
		}
		checkScopeResolution(t, file)
	})
}

func FuzzParseGo(f *testing.F) {
	p := newTestParser(f)

	f.Add([]byte("package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n"))
	f.Add([]byte("package s\n\ntype S struct{}\n\nfunc (s *S) Run() {}\n"))
	f.Add([]byte("package b\n\nimport (\n\t\"fmt\"\n\t_ \"embed\"\n)\n"))
	f.Add([]byte("package broken\n\nfunc {\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		file, err := p.ParseFile("fuzz.go", data)
		if err != nil {
			t.Fatalf("extraction must degrade to diagnostics, not errors: %v", err)
		}
		if file == nil {
			t.Fatal("nil file map without error")
		}
		checkScopeResolution(t, file)
	})
}
