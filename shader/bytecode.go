// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/devblok/xen/pipeline"
)

// SPIRVMagic is the first word of every SPIR-V module
const SPIRVMagic = 0x07230203

// Bytecode is a compiled shader that is not yet a module
type Bytecode struct {
	// Name of the source, without the .spv suffix
	Name  string
	Stage Stage
	Entry string
	Code  []byte
}

// NewBytecode checks code and derives the stage from name
func NewBytecode(name string, code []byte) (Bytecode, error) {
	stage, err := StageFromPath(name)
	if err != nil {
		return Bytecode{}, err
	}
	bc := Bytecode{
		Name:  strings.TrimSuffix(name, BytecodeExtension),
		Stage: stage,
		Entry: pipeline.DefaultEntryPoint,
		Code:  code,
	}
	if err := bc.Validate(); err != nil {
		return Bytecode{}, err
	}
	return bc, nil
}

// Validate checks that Code is word aligned and starts with the SPIR-V magic
func (b Bytecode) Validate() error {
	if len(b.Code) < 4 || len(b.Code)%4 != 0 {
		return errors.Wrapf(ErrInvalidBytecode, "%s: size %d", b.Name, len(b.Code))
	}
	if binary.LittleEndian.Uint32(b.Code) != SPIRVMagic {
		return errors.Wrapf(ErrInvalidBytecode, "%s: bad magic", b.Name)
	}
	return nil
}

// PackName is the name the bytecode is stored under in a pack
func (b Bytecode) PackName() string {
	return b.Name + BytecodeExtension
}
