package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carto-dev/carto/internal/lang"
)

func mustParse(t *testing.T, path, src string) *FileRecord {
	t.Helper()
	l := lang.Classify(path)
	require.NotNil(t, l, "classifier must know %s", path)
	return Parse(path, []byte(src), l)
}

func functionNames(rec *FileRecord) []string {
	names := make([]string, len(rec.Functions))
	for i, fn := range rec.Functions {
		names[i] = fn.Name
	}
	return names
}

const pySrc = `"""Config loading helpers, with a def decoy(x): inside."""
import os
import sys, json
from .util import helper
from collections import OrderedDict

# def commented_out(a):
BANNER = "class NotReal:"


def top(a, b=1, *args, **kwargs):
    return a


async def fetch(url):
    return url


class Base:
    pass


class Loader(Base, metaclass=Meta):
    def __init__(self, path):
        self.path = path

    def load(self):
        def inner(x):
            return x
        return inner(self.path)
`

func TestParsePythonStructure(t *testing.T) {
	rec := mustParse(t, "app/config.py", pySrc)

	assert.Equal(t, "python", rec.Language)
	assert.Equal(t, 30, rec.Lines)
	assert.Equal(t, []string{"os", "sys", "json", ".util", "collections"}, rec.Imports)

	assert.Equal(t, []string{"top", "fetch", "__init__", "load", "inner"}, functionNames(rec))
	assert.Equal(t, 11, rec.Functions[0].Line)
	assert.Equal(t, []string{"a", "b", "args", "kwargs"}, rec.Functions[0].Params)
	assert.Equal(t, 15, rec.Functions[1].Line)
	assert.Equal(t, []string{"self", "path"}, rec.Functions[2].Params)

	require.Len(t, rec.Classes, 2)
	base, loader := rec.Classes[0], rec.Classes[1]
	assert.Equal(t, "Base", base.Name)
	assert.Equal(t, 19, base.Line)
	assert.Empty(t, base.Bases)
	assert.Equal(t, 0, base.Methods)
	assert.Equal(t, "Loader", loader.Name)
	assert.Equal(t, 23, loader.Line)
	assert.Equal(t, []string{"Base"}, loader.Bases)
	// inner is nested below body indent, so only __init__ and load count.
	assert.Equal(t, 2, loader.Methods)
}

func TestParseGoStructure(t *testing.T) {
	goSrc := strings.Join([]string{
		"package store",
		"",
		"import (",
		"\t\"fmt\"",
		"\tstdlog \"log\"",
		")",
		"",
		"import \"errors\"",
		"",
		"const banner = \"func decoy() {\"",
		"",
		"type Store struct {",
		"\tdir string",
		"}",
		"",
		"type Reader interface {",
		"\tRead(p []byte) (int, error)",
		"}",
		"",
		"func New(dir string, opts ...Option) (*Store, error) {",
		"\treturn &Store{dir: dir}, nil",
		"}",
		"",
		"func (s *Store) Get(key string) ([]byte, error) {",
		"\tif key == \"\" {",
		"\t\treturn nil, errors.New(\"empty key\")",
		"\t}",
		"\treturn []byte(s.dir), nil",
		"}",
		"",
		"var query = `SELECT 1; func ghost() {}`",
		"",
	}, "\n")
	rec := mustParse(t, "internal/store/store.go", goSrc)

	assert.Equal(t, "go", rec.Language)
	assert.Equal(t, []string{"fmt", "log", "errors"}, rec.Imports)
	assert.Equal(t, []string{"New", "Get"}, functionNames(rec))
	assert.Equal(t, 20, rec.Functions[0].Line)
	assert.Equal(t, []string{"dir", "opts"}, rec.Functions[0].Params)
	assert.Equal(t, []string{"key"}, rec.Functions[1].Params)

	require.Len(t, rec.Classes, 2)
	assert.Equal(t, "Store", rec.Classes[0].Name)
	assert.Equal(t, 1, rec.Classes[0].Methods) // Get's receiver
	assert.Equal(t, "Reader", rec.Classes[1].Name)
	assert.Equal(t, 0, rec.Classes[1].Methods)
}

const jsSrc = `// bootstrap require("./decoy") stays out
import { render } from "./view";
import "./styles.css";
const fs = require("fs");

/*
function ghost() {}
*/

export default class Widget extends Base {
  constructor(props) {
    this.props = props;
  }

  async render(ctx) {
    return render(ctx, this.props);
  }
}

export const mount = (el, opts) => {
  return new Widget(el).render(opts);
};

function helper(a, b) {
  return a + b;
}
`

func TestParseJavaScriptStructure(t *testing.T) {
	rec := mustParse(t, "web/widget.js", jsSrc)

	assert.Equal(t, []string{"./view", "./styles.css", "fs"}, rec.Imports)
	assert.Equal(t, []string{"constructor", "render", "mount", "helper"}, functionNames(rec))
	assert.Equal(t, 11, rec.Functions[0].Line)
	assert.Equal(t, []string{"el", "opts"}, rec.Functions[2].Params)
	assert.Equal(t, 24, rec.Functions[3].Line)

	require.Len(t, rec.Classes, 1)
	assert.Equal(t, "Widget", rec.Classes[0].Name)
	assert.Equal(t, []string{"Base"}, rec.Classes[0].Bases)
	assert.Equal(t, 2, rec.Classes[0].Methods)
}

const cSrc = `#include "util.h"
#include <stdio.h>

/* int ghost(int x) { return x; } */

static int counter = 0;

int add(int a, int b) {
    return a + b;
}

void log_value(const char *msg, int value);

struct Point {
    int x;
    int y;
};

int main(int argc, char **argv) {
    if (counter > add(argc, 1)) {
        return 1;
    }
    return 0;
}
`

func TestParseCStructure(t *testing.T) {
	rec := mustParse(t, "core/calc.c", cSrc)

	assert.Equal(t, []string{"util.h", "stdio.h"}, rec.Imports)
	// The prototype on line 12 has no body and stays out.
	assert.Equal(t, []string{"add", "main"}, functionNames(rec))
	assert.Equal(t, 8, rec.Functions[0].Line)
	assert.Equal(t, []string{"a", "b"}, rec.Functions[0].Params)
	assert.Equal(t, []string{"argc", "argv"}, rec.Functions[1].Params)

	require.Len(t, rec.Classes, 1)
	assert.Equal(t, "Point", rec.Classes[0].Name)
	assert.Equal(t, 14, rec.Classes[0].Line)
}

const rustSrc = `use std::collections::HashMap;
mod config;

pub struct Engine {
    map: HashMap<String, String>,
}

impl Engine {
    pub fn new() -> Self {
        Engine { map: HashMap::new() }
    }

    fn lookup(&self, key: &str) -> Option<&String> {
        self.map.get(key)
    }
}
`

func TestParseRustStructure(t *testing.T) {
	rec := mustParse(t, "src/engine.rs", rustSrc)

	assert.Equal(t, []string{"std::collections::HashMap", "config"}, rec.Imports)
	assert.Equal(t, []string{"new", "lookup"}, functionNames(rec))
	assert.Empty(t, rec.Functions[0].Params)
	assert.Equal(t, []string{"self", "key"}, rec.Functions[1].Params)

	require.Len(t, rec.Classes, 1)
	assert.Equal(t, "Engine", rec.Classes[0].Name)
	// impl block methods attach to the struct declaration.
	assert.Equal(t, 2, rec.Classes[0].Methods)
}

const shSrc = `#!/usr/bin/env bash
source ./lib/common.sh
. ./lib/extra.sh

greet() {
    echo "hello $1"
}

function deploy {
    greet prod
}
`

func TestParseShellStructure(t *testing.T) {
	rec := mustParse(t, "scripts/release.sh", shSrc)

	assert.Equal(t, []string{"./lib/common.sh", "./lib/extra.sh"}, rec.Imports)
	assert.Equal(t, []string{"greet", "deploy"}, functionNames(rec))
	assert.Equal(t, 5, rec.Functions[0].Line)
	assert.Equal(t, 9, rec.Functions[1].Line)
	assert.Empty(t, rec.Classes)
}

func TestParseMakefileTargets(t *testing.T) {
	mkSrc := strings.Join([]string{
		"include common.mk",
		"",
		"CC := gcc",
		"",
		"build: deps",
		"\t$(CC) -o app main.c",
		"",
		"deps:",
		"\tapt-get install -y libfoo",
		"",
		".PHONY: build deps",
		"",
	}, "\n")
	rec := mustParse(t, "Makefile", mkSrc)

	assert.Equal(t, "makefile", rec.Language)
	assert.Equal(t, []string{"common.mk"}, rec.Imports)
	// Variable assignments and indented recipe lines are not targets.
	assert.Equal(t, []string{"build", "deps"}, functionNames(rec))
	assert.Equal(t, 5, rec.Functions[0].Line)
	assert.Equal(t, 8, rec.Functions[1].Line)
}

func TestParseMalformedDegradesQuietly(t *testing.T) {
	rec := mustParse(t, "bad.py", "import os\n\ndef broken(a, b")

	assert.Equal(t, "python", rec.Language)
	assert.Equal(t, []string{"os"}, rec.Imports)
	// The unbalanced header still names the function; params are dropped.
	assert.Equal(t, []string{"broken"}, functionNames(rec))
	assert.Empty(t, rec.Functions[0].Params)
	assert.Empty(t, rec.Classes)
}

func TestParseUnknownAndInertLanguages(t *testing.T) {
	rec := Parse("blob.xyz", []byte("no structure here\n"), nil)
	assert.Equal(t, "", rec.Language)
	assert.Equal(t, 1, rec.Lines)
	assert.Empty(t, rec.Imports)
	assert.Empty(t, rec.Functions)

	md := Parse("README.md", []byte("# Title\n\nwords\n"), lang.ByTag("markdown"))
	assert.Equal(t, "markdown", md.Language)
	assert.Empty(t, md.Functions)
	assert.Equal(t, 3, md.Lines)
}

func TestFingerprintAndLineCount(t *testing.T) {
	a := Fingerprint([]byte("x = 1\n"))
	b := Fingerprint([]byte("x = 2\n"))
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint([]byte("x = 1\n")))

	assert.Equal(t, 0, CountLines(nil))
	assert.Equal(t, 1, CountLines([]byte("one")))
	assert.Equal(t, 1, CountLines([]byte("one\n")))
	assert.Equal(t, 2, CountLines([]byte("one\ntwo")))
}
