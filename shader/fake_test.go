// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/shader"
)

// spirv returns a module made of the magic followed by words
func spirv(words ...uint32) []byte {
	out := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(out, shader.SPIRVMagic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*(i+1):], w)
	}
	return out
}

type fakeDriver struct {
	createErr error

	created   []vk.ShaderModuleCreateInfo
	destroyed []vk.ShaderModule
}

func (f *fakeDriver) CreateShaderModule(dev vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, *info)
	return vk.ShaderModule(unsafe.Pointer(new(int))), nil
}

func (f *fakeDriver) DestroyShaderModule(dev vk.Device, module vk.ShaderModule) {
	f.destroyed = append(f.destroyed, module)
}

var (
	_ shader.Driver = (*fakeDriver)(nil)

	testDevice = vk.Device(unsafe.Pointer(new(int)))
)

type memLoader map[string][]byte

func (m memLoader) Load(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.Newf("%s: no such shader", name)
	}
	return data, nil
}

// glslc scripts stand in for the real compiler. They log their
// arguments next to themselves.
const (
	okCompiler = `#!/bin/sh
for a; do last="$a"; done
echo "$@" > "$0.args"
cat "$last" > /dev/null
printf '\003\002\043\007\000\000\001\000'
`
	failingCompiler = `#!/bin/sh
echo "triangle.vert:3: error: 'foo' : undeclared identifier" >&2
exit 1
`
	garbageCompiler = `#!/bin/sh
printf 'hello'
`
)

// compiledOutput is what okCompiler prints
var compiledOutput = spirv(0x00010000)

func newTestCompiler(c *qt.C, script string) (*shader.Compiler, string) {
	if runtime.GOOS == "windows" {
		c.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(c.TempDir(), "glslc")
	c.Assert(os.WriteFile(path, []byte(script), 0o755), qt.IsNil)

	compiler, err := shader.NewCompiler(core.ShaderConfiguration{Compiler: path})
	c.Assert(err, qt.IsNil)
	c.Cleanup(compiler.Close)
	return compiler, path + ".args"
}
