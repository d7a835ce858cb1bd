// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/xen/utility/kar"
)

// PackVersion is written into the header of every shader pack
const PackVersion = 1

// OpenPack memory maps a shader pack
func OpenPack(path string) (*Pack, error) {
	f, err := kar.OpenFile(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"pack":    path,
		"shaders": len(f.Names()),
	}).Debug("shader pack opened")
	return &Pack{archive: f.Archive, closer: f}, nil
}

// ReadPack reads a shader pack from r
func ReadPack(r io.ReaderAt) (*Pack, error) {
	ar, err := kar.Open(r)
	if err != nil {
		return nil, err
	}
	return &Pack{archive: ar}, nil
}

// Pack is a kar archive of compiled shaders, stored under
// their source name with a .spv suffix
type Pack struct {
	archive *kar.Archive
	closer  io.Closer
}

// Names lists the stored shaders
func (p *Pack) Names() []string {
	return p.archive.Names()
}

// Load implements Loader
func (p *Pack) Load(name string) ([]byte, error) {
	data, err := p.archive.ReadAll(name)
	if errors.Is(err, kar.ErrNotFound) && !strings.HasSuffix(name, BytecodeExtension) {
		data, err = p.archive.ReadAll(name + BytecodeExtension)
	}
	return data, err
}

// Close releases the underlying file, if any
func (p *Pack) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// BuildPack writes compiled into a new shader pack
func BuildPack(w io.Writer, author string, compiled []Bytecode) error {
	builder := kar.NewBuilder(kar.Header{
		Author:      author,
		DateCreated: time.Now().Unix(),
		Version:     PackVersion,
	})
	for _, bc := range compiled {
		if err := bc.Validate(); err != nil {
			return err
		}
		if err := builder.Add(bc.PackName(), bytes.NewReader(bc.Code)); err != nil {
			return err
		}
	}
	_, err := builder.WriteTo(w)
	return err
}

