// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/packd"
	"golang.org/x/sync/errgroup"
)

// Loader reads compiled bytecode by name
type Loader interface {
	Load(name string) ([]byte, error)
}

// Dir loads bytecode files relative to a directory
type Dir string

// Load implements Loader
func (d Dir) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)))
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	return data, nil
}

// LoadAll loads names concurrently and returns the bytecode in the
// same order. The first failure cancels the loads still running.
func LoadAll(ctx context.Context, l Loader, names []string) ([]Bytecode, error) {
	out := make([]Bytecode, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := l.Load(name)
			if err != nil {
				return err
			}
			bc, err := NewBytecode(name, data)
			if err != nil {
				return err
			}
			out[i] = bc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type source struct {
	name  string
	stage Stage
	data  []byte
}

// Sources walks box and returns the names of every file with a known
// shader stage extension, sorted
func Sources(box packd.Walkable) ([]string, error) {
	sources, err := collectSources(box)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.name)
	}
	return names, nil
}

func collectSources(box packd.Walkable) ([]source, error) {
	var sources []source
	err := box.Walk(func(name string, f packd.File) error {
		stage, err := StageFromPath(name)
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		sources = append(sources, source{name: filepath.ToSlash(name), stage: stage, data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].name < sources[j].name
	})
	return sources, nil
}

// CompileBox compiles every shader source found in box concurrently.
// Files with other extensions are skipped. Results are sorted by name.
func CompileBox(ctx context.Context, c *Compiler, box packd.Walkable) ([]Bytecode, error) {
	sources, err := collectSources(box)
	if err != nil {
		return nil, err
	}

	out := make([]Bytecode, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			bc, err := c.CompileSource(ctx, s.name, s.stage, "", bytes.NewReader(s.data))
			if err != nil {
				return err
			}
			out[i] = bc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
