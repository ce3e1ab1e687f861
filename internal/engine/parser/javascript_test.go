// # internal/engine/parser/javascript_test.go
package parser

import (
	"testing"
)

func TestJavaScriptExtraction_ImportShapes(t *testing.T) {
	p := newTestParser(t)

	src := `import React from 'react';
import * as path from 'node:path';
import { readFile, writeFile as wf } from './fs-extra';
import './styles.css';
export { helper } from '../shared/helpers';
const cfg = require('config-lib');
const dyn = import('./plugins/' + name);
`
	file := mustParse(t, p, "deps.js", src)

	want := []struct {
		kind    ImportKind
		module  string
		depth   int
		targets int
	}{
		{ImportAliased, "react", 0, 1},
		{ImportWildcard, "node:path", 0, 1},
		{ImportRelative, "./fs-extra", 0, 2},
		{ImportRelative, "./styles.css", 0, 1},
		{ImportRelative, "../shared/helpers", 1, 1},
		{ImportAliased, "config-lib", 0, 1},
		{ImportDynamic, "", 0, 0},
	}
	if len(file.Imports) != len(want) {
		t.Fatalf("expected %d imports, got %d: %v", len(want), len(file.Imports), file.Imports)
	}
	for i, w := range want {
		imp := file.Imports[i]
		if imp.Kind != w.kind {
			t.Errorf("import %d: expected kind %s, got %s", i, w.kind, imp.Kind)
		}
		if imp.Module != w.module {
			t.Errorf("import %d: expected module %q, got %q", i, w.module, imp.Module)
		}
		if imp.RelativeDepth != w.depth {
			t.Errorf("import %d: expected depth %d, got %d", i, w.depth, imp.RelativeDepth)
		}
		if len(imp.Targets) != w.targets {
			t.Errorf("import %d: expected %d targets, got %v", i, w.targets, imp.Targets)
		}
	}

	if def := file.Imports[0].Targets[0]; def.Name != "default" || def.Alias != "React" {
		t.Errorf("expected default binding aliased to React, got %v", def)
	}
	if ns := file.Imports[1].Targets[0]; !ns.Wildcard || ns.Alias != "path" {
		t.Errorf("expected namespace binding aliased to path, got %v", ns)
	}
	if named := file.Imports[2].Targets[1]; named.Name != "writeFile" || named.Alias != "wf" {
		t.Errorf("expected writeFile as wf, got %v", named)
	}
	if dyn := file.Imports[6]; dyn.Resolved != Unresolved {
		t.Errorf("computed specifier must resolve to the sentinel, got %q", dyn.Resolved)
	}
}

func TestJavaScriptExtraction_ClassMembers(t *testing.T) {
	p := newTestParser(t)

	src := `class Counter {
  constructor(start) {
    this.n = start;
  }

  increment() {
    this.n += 1;
  }

  static *squares(limit) {
    for (let i = 0; i < limit; i++) yield i * i;
  }

  async flush() {
    await save(this.n);
  }
}

const tally = (xs) => xs.reduce((a, b) => a + b, 0);
`
	file := mustParse(t, p, "counter.js", src)

	counter := findSymbol(file, "Counter")
	if counter == nil || counter.Kind != KindClass {
		t.Fatalf("expected Counter class record, got %v", counter)
	}

	ctor := findSymbol(file, "constructor")
	if ctor.Kind != KindConstructor {
		t.Errorf("expected Constructor, got %s", ctor.Kind)
	}
	if inc := findSymbol(file, "increment"); inc.Kind != KindMethod {
		t.Errorf("expected increment as Method, got %s", inc.Kind)
	}

	squares := findSymbol(file, "squares")
	if squares.Kind != KindStaticMethod {
		t.Errorf("expected squares as StaticMethod, got %s", squares.Kind)
	}
	if !squares.Modifiers.Has(ModStatic) || !squares.Modifiers.Has(ModGenerator) {
		t.Errorf("expected squares Static|Generator, got %s", squares.Modifiers)
	}

	flush := findSymbol(file, "flush")
	if flush.Kind != KindMethod || !flush.Modifiers.Has(ModAsync) {
		t.Errorf("expected flush as async Method, got %s %s", flush.Kind, flush.Modifiers)
	}

	for _, name := range []string{"constructor", "increment", "squares", "flush"} {
		sym := findSymbol(file, name)
		if cls := file.EnclosingClass(sym); cls == nil || cls.Name != "Counter" {
			t.Errorf("expected %s bound to Counter, got %v", name, cls)
		}
	}

	// The curried reducer nests one arrow inside the other.
	var lambdas []*Symbol
	for i := range file.Symbols {
		if file.Symbols[i].Kind == KindLambda {
			lambdas = append(lambdas, &file.Symbols[i])
		}
	}
	if len(lambdas) != 2 {
		t.Fatalf("expected 2 arrow records, got %d", len(lambdas))
	}
	if lambdas[0].ScopeID != "" {
		t.Errorf("expected outer arrow unscoped, got %q", lambdas[0].ScopeID)
	}
	if lambdas[1].ScopeID != lambdas[0].ID() {
		t.Errorf("expected inner arrow scoped to outer, got %q", lambdas[1].ScopeID)
	}
}

func TestJavaScriptExtraction_ConditionalRequire(t *testing.T) {
	p := newTestParser(t)

	src := `let parser;
try {
  parser = require('fast-parser');
} catch (err) {
  parser = require('./fallback');
}
`
	file := mustParse(t, p, "loader.js", src)

	if len(file.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d: %v", len(file.Imports), file.Imports)
	}

	primary := file.Imports[0]
	if primary.Kind != ImportConditional {
		t.Errorf("require in a try body is the optional-dependency idiom, got %s", primary.Kind)
	}
	if !primary.Guarded || primary.Module != "fast-parser" {
		t.Errorf("expected guarded fast-parser record, got %v", primary)
	}

	fallback := file.Imports[1]
	if fallback.Kind != ImportRelative {
		t.Errorf("expected relative fallback, got %s", fallback.Kind)
	}
	if !fallback.Guarded {
		t.Error("catch-branch require must be guarded")
	}
}

func TestTypeScriptExtraction_TypeDeclarations(t *testing.T) {
	p := newTestParser(t)

	src := `import { Task } from './task';

export interface Scheduler {
  next(): Task;
}

enum Phase {
  Idle,
  Busy,
}

abstract class BaseWorker {
  abstract run(): void;
  stop(): void {}
}
`
	file := mustParse(t, p, "scheduler.ts", src)

	if file.Language != "typescript" {
		t.Fatalf("expected typescript, got %s", file.Language)
	}
	if len(file.Imports) != 1 || file.Imports[0].Kind != ImportRelative {
		t.Fatalf("expected one relative import, got %v", file.Imports)
	}

	for _, name := range []string{"Scheduler", "Phase", "BaseWorker"} {
		sym := findSymbol(file, name)
		if sym == nil || sym.Kind != KindClass {
			t.Errorf("expected %s as class record, got %v", name, sym)
		}
	}

	// Interface member signatures carry no bodies and are not symbols.
	if findSymbol(file, "next") != nil {
		t.Error("interface member signatures must not produce symbols")
	}

	stop := findSymbol(file, "stop")
	if stop == nil || stop.Kind != KindMethod {
		t.Fatalf("expected stop as Method, got %v", stop)
	}
	if cls := file.EnclosingClass(stop); cls == nil || cls.Name != "BaseWorker" {
		t.Errorf("expected stop bound to BaseWorker, got %v", cls)
	}
}
