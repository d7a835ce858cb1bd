// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command xenc compiles a tree of GLSL sources into a shader pack
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/cockroachdb/errors"
	units "github.com/docker/go-units"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/xen/core"
	"github.com/devblok/xen/shader"
	"github.com/devblok/xen/utility/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil {
		currentUserName = u.Username
	}
}

var (
	currentUserName string

	author  = flag.String("author", "", "Set the author of the pack, defaults to the current user")
	source  = flag.String("c", "", "Compile every shader source under the given folder")
	list    = flag.String("l", "", "List the contents of the given pack")
	dstFile = flag.String("f", "shaders.kar", "Destination file")
	force   = flag.Bool("force", false, "Overwrite the destination file")
)

func main() {
	flag.Parse()

	cfg, err := core.LoadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := core.ConfigureLogging(cfg.Log); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	switch {
	case *source != "" && *list != "":
		log.Fatal("only one operation at a time")
	case *source != "":
		if err := compileTree(cfg.Shader, *source); err != nil {
			log.WithError(err).Fatal("failed to build shader pack")
		}
	case *list != "":
		if err := listPack(*list); err != nil {
			log.WithError(err).Fatal("failed to list shader pack")
		}
	default:
		flag.PrintDefaults()
	}
}

func compileTree(cfg core.ShaderConfiguration, root string) error {
	if _, err := os.Stat(*dstFile); err == nil && !*force {
		return errors.Newf("destination file %s exists, will not overwrite", *dstFile)
	}

	var sources []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, err := shader.StageFromPath(path); err != nil {
			log.WithField("file", path).Debug("not a shader source, skipped")
			return nil
		}
		sources = append(sources, path)
		return nil
	})
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.Newf("no shader sources were found in %s", root)
	}
	sort.Strings(sources)

	compiler, err := shader.NewCompiler(cfg)
	if err != nil {
		return err
	}
	defer compiler.Close()

	compiled := make([]shader.Bytecode, len(sources))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())
	for i, path := range sources {
		i, path := i, path
		g.Go(func() error {
			bc, err := compiler.Compile(ctx, path, "")
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			bc.Name = filepath.ToSlash(rel)
			compiled[i] = bc
			log.WithField("shader", bc.Name).Info("compiled")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	name := *author
	if name == "" {
		name = currentUserName
	}
	if err := shader.BuildPack(dst, name, compiled); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"pack":    *dstFile,
		"shaders": len(compiled),
	}).Info("shader pack written")
	return nil
}

func listPack(path string) error {
	f, err := kar.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := f.Header()
	fmt.Printf("author %s, version %d, %d files\n", header.Author, header.Version, len(header.Index))
	for _, e := range header.Index {
		fmt.Printf("%-40s %10s %10s\n", e.Name, units.HumanSize(float64(e.Size)), units.HumanSize(float64(e.CompressedSize)))
	}
	return nil
}
