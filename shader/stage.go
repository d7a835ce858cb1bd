// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shader turns GLSL sources and SPIR-V bytecode into shader
// modules ready to be attached to a pipeline. Sources are compiled by
// an external glslc, compiled bytecode can be stored in kar packs.
package shader

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// package errors
var (
	ErrUnknownStage     = errors.New("unknown shader stage")
	ErrInvalidBytecode  = errors.New("not SPIR-V bytecode")
	ErrCompilerNotFound = errors.New("shader compiler not found")
	ErrCompileFailed    = errors.New("shader compilation failed")
	ErrCompilerClosed   = errors.New("shader compiler is closed")
)

// BytecodeExtension is appended to compiled shader names
const BytecodeExtension = ".spv"

// Stage is a programmable pipeline stage
type Stage int

// Stages known by their source file extension
const (
	StageVertex Stage = iota + 1
	StageFragment
	StageCompute
	StageGeometry
	StageTessellationControl
	StageTessellationEvaluation
)

var stageExtensions = map[string]Stage{
	"vert": StageVertex,
	"frag": StageFragment,
	"comp": StageCompute,
	"geom": StageGeometry,
	"tesc": StageTessellationControl,
	"tese": StageTessellationEvaluation,
}

// StageFromPath derives the stage from the file extension. A trailing
// .spv is ignored, so both "a.vert" and "a.vert.spv" are vertex shaders.
func StageFromPath(path string) (Stage, error) {
	name := strings.TrimSuffix(filepath.Base(path), BytecodeExtension)
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if stage, ok := stageExtensions[ext]; ok {
		return stage, nil
	}
	return 0, errors.Wrap(ErrUnknownStage, path)
}

// String returns the extension, which is also the glslc stage name
func (s Stage) String() string {
	for ext, stage := range stageExtensions {
		if stage == s {
			return ext
		}
	}
	return "unknown"
}

// Flag returns the Vulkan stage bit
func (s Stage) Flag() vk.ShaderStageFlagBits {
	switch s {
	case StageVertex:
		return vk.ShaderStageVertexBit
	case StageFragment:
		return vk.ShaderStageFragmentBit
	case StageCompute:
		return vk.ShaderStageComputeBit
	case StageGeometry:
		return vk.ShaderStageGeometryBit
	case StageTessellationControl:
		return vk.ShaderStageTessellationControlBit
	case StageTessellationEvaluation:
		return vk.ShaderStageTessellationEvaluationBit
	}
	return 0
}
