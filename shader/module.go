// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/pipeline"
)

// Driver is the part of the Vulkan API shader modules need
type Driver interface {
	CreateShaderModule(dev vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error)
	DestroyShaderModule(dev vk.Device, module vk.ShaderModule)
}

// NewModule creates a shader module from bytecode
func NewModule(d Driver, device vk.Device, bc Bytecode) (*Module, error) {
	if err := bc.Validate(); err != nil {
		return nil, err
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(bc.Code)),
		PCode:    core.SliceUint32(bc.Code),
	}

	handle, err := d.CreateShaderModule(device, &smci)
	if err != nil {
		return nil, err
	}

	entry := bc.Entry
	if entry == "" {
		entry = pipeline.DefaultEntryPoint
	}
	return &Module{
		driver: d,
		device: device,
		handle: handle,
		name:   bc.Name,
		stage:  bc.Stage,
		entry:  entry,
	}, nil
}

// Module is a Vulkan shader module. It can be destroyed as soon as
// every pipeline using it has been built.
type Module struct {
	driver Driver
	device vk.Device
	handle vk.ShaderModule

	name  string
	stage Stage
	entry string
}

// Name of the shader
func (m *Module) Name() string {
	return m.name
}

// Stage the module runs in
func (m *Module) Stage() Stage {
	return m.stage
}

// Entry is the entry point name
func (m *Module) Entry() string {
	return m.entry
}

// Handle returns the vk.ShaderModule
func (m *Module) Handle() vk.ShaderModule {
	return m.handle
}

// Attach adds the module as a stage of b
func (m *Module) Attach(b *pipeline.Builder) *pipeline.Builder {
	return b.AddShaderStage(m.stage.Flag(), m.handle, m.entry)
}

// Destroy implements core.Destroyable
func (m *Module) Destroy() {
	if m.handle == nil {
		return
	}
	m.driver.DestroyShaderModule(m.device, m.handle)
	m.handle = nil
}

var _ core.Destroyable = (*Module)(nil)
