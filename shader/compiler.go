// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/pipeline"
)

// NewCompiler resolves the glslc executable named in cfg
func NewCompiler(cfg core.ShaderConfiguration) (*Compiler, error) {
	name := cfg.Compiler
	if name == "" {
		name = "glslc"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, errors.Wrapf(ErrCompilerNotFound, "%s: %v", name, err)
	}
	return &Compiler{path: path}, nil
}

// Compiler compiles GLSL into SPIR-V targeting Vulkan 1.0 with
// optimizations on. It is owned by whoever created it and is safe to
// use from multiple goroutines until Close.
type Compiler struct {
	path string

	mutex  sync.RWMutex
	closed bool
}

// Path of the resolved executable
func (c *Compiler) Path() string {
	return c.path
}

// Compile compiles the source file at path, the stage comes from its extension
func (c *Compiler) Compile(ctx context.Context, path, entry string) (Bytecode, error) {
	stage, err := StageFromPath(path)
	if err != nil {
		return Bytecode{}, err
	}
	return c.run(ctx, path, stage, entry, path, nil)
}

// CompileSource compiles source read from src. name is only used
// to name the result and in errors.
func (c *Compiler) CompileSource(ctx context.Context, name string, stage Stage, entry string, src io.Reader) (Bytecode, error) {
	return c.run(ctx, name, stage, entry, "-", src)
}

func (c *Compiler) run(ctx context.Context, name string, stage Stage, entry, input string, stdin io.Reader) (Bytecode, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.closed {
		return Bytecode{}, ErrCompilerClosed
	}

	if entry == "" {
		entry = pipeline.DefaultEntryPoint
	}

	args := []string{
		"--target-env=vulkan1.0",
		"-O",
		"-fshader-stage=" + stage.String(),
	}
	if entry != pipeline.DefaultEntryPoint {
		args = append(args, "-fentry-point="+entry)
	}
	args = append(args, "-o", "-", input)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := hrtime.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Bytecode{}, errors.Wrapf(ctxErr, "compile %s", name)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Bytecode{}, errors.Wrapf(ErrCompileFailed, "%s: %s", name, msg)
	}

	bc := Bytecode{
		Name:  name,
		Stage: stage,
		Entry: entry,
		Code:  stdout.Bytes(),
	}
	if err := bc.Validate(); err != nil {
		return Bytecode{}, err
	}

	log.WithFields(log.Fields{
		"shader": name,
		"stage":  stage,
		"size":   len(bc.Code),
		"took":   hrtime.Since(start),
	}).Debug("shader compiled")
	return bc, nil
}

// Close releases the compiler, later compilations fail with ErrCompilerClosed.
// It waits for compilations in flight.
func (c *Compiler) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
}
