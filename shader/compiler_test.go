// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/shader"
)

func TestNewCompilerNotFound(t *testing.T) {
	c := qt.New(t)

	_, err := shader.NewCompiler(core.ShaderConfiguration{Compiler: "xen-missing-glslc"})
	c.Assert(errors.Is(err, shader.ErrCompilerNotFound), qt.IsTrue)
}

func TestCompile(t *testing.T) {
	c := qt.New(t)

	compiler, argsFile := newTestCompiler(c, okCompiler)
	src := filepath.Join(c.TempDir(), "triangle.vert")
	c.Assert(os.WriteFile(src, []byte("#version 450\nvoid main() {}\n"), 0o644), qt.IsNil)

	bc, err := compiler.Compile(context.Background(), src, "")
	c.Assert(err, qt.IsNil)
	c.Assert(bc.Name, qt.Equals, src)
	c.Assert(bc.Stage, qt.Equals, shader.StageVertex)
	c.Assert(bc.Entry, qt.Equals, "main")
	c.Assert(bc.Code, qt.DeepEquals, compiledOutput)

	args, err := os.ReadFile(argsFile)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(string(args)), qt.Equals,
		"--target-env=vulkan1.0 -O -fshader-stage=vert -o - "+src)
}

func TestCompileEntryPoint(t *testing.T) {
	c := qt.New(t)

	compiler, argsFile := newTestCompiler(c, okCompiler)
	src := filepath.Join(c.TempDir(), "blur.comp")
	c.Assert(os.WriteFile(src, []byte("#version 450\n"), 0o644), qt.IsNil)

	bc, err := compiler.Compile(context.Background(), src, "blur")
	c.Assert(err, qt.IsNil)
	c.Assert(bc.Entry, qt.Equals, "blur")

	args, err := os.ReadFile(argsFile)
	c.Assert(err, qt.IsNil)
	c.Assert(string(args), qt.Contains, "-fshader-stage=comp -fentry-point=blur")
}

func TestCompileSource(t *testing.T) {
	c := qt.New(t)

	compiler, argsFile := newTestCompiler(c, okCompiler)
	bc, err := compiler.CompileSource(context.Background(), "triangle.frag", shader.StageFragment, "", strings.NewReader("void main() {}"))
	c.Assert(err, qt.IsNil)
	c.Assert(bc.Name, qt.Equals, "triangle.frag")
	c.Assert(bc.Stage, qt.Equals, shader.StageFragment)

	args, err := os.ReadFile(argsFile)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(string(args)), qt.Equals,
		"--target-env=vulkan1.0 -O -fshader-stage=frag -o - -")
}

func TestCompileUnknownStage(t *testing.T) {
	c := qt.New(t)

	compiler, _ := newTestCompiler(c, okCompiler)
	_, err := compiler.Compile(context.Background(), "notes.txt", "")
	c.Assert(errors.Is(err, shader.ErrUnknownStage), qt.IsTrue)
}

func TestCompileFailure(t *testing.T) {
	c := qt.New(t)

	compiler, _ := newTestCompiler(c, failingCompiler)
	_, err := compiler.CompileSource(context.Background(), "triangle.vert", shader.StageVertex, "", strings.NewReader(""))
	c.Assert(errors.Is(err, shader.ErrCompileFailed), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `triangle.vert: triangle.vert:3: error: 'foo' : undeclared identifier: shader compilation failed`)
}

func TestCompileGarbageOutput(t *testing.T) {
	c := qt.New(t)

	compiler, _ := newTestCompiler(c, garbageCompiler)
	_, err := compiler.CompileSource(context.Background(), "triangle.vert", shader.StageVertex, "", strings.NewReader(""))
	c.Assert(errors.Is(err, shader.ErrInvalidBytecode), qt.IsTrue)
}

func TestCompileCancelled(t *testing.T) {
	c := qt.New(t)

	compiler, _ := newTestCompiler(c, okCompiler)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := compiler.CompileSource(ctx, "triangle.vert", shader.StageVertex, "", strings.NewReader(""))
	c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)
}

func TestCompileAfterClose(t *testing.T) {
	c := qt.New(t)

	compiler, _ := newTestCompiler(c, okCompiler)
	compiler.Close()

	_, err := compiler.CompileSource(context.Background(), "triangle.vert", shader.StageVertex, "", strings.NewReader(""))
	c.Assert(err, qt.Equals, shader.ErrCompilerClosed)
}
