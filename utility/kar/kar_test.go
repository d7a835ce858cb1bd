// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/xen/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func testHeader() kar.Header {
	return kar.Header{
		Author:      "devblok",
		DateCreated: 1546300800,
		Version:     1,
	}
}

func build(c *qt.C, files map[string]string) []byte {
	builder := kar.NewBuilder(testHeader())
	for name, contents := range files {
		c.Assert(builder.Add(name, strings.NewReader(contents)), qt.IsNil)
	}

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(written, qt.Equals, int64(buf.Len()))
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)

	raw := build(c, map[string]string{"test": testString1, "test2": testString2})
	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)

	f, err := ar.Open("test")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Name(), qt.Equals, "test")
	c.Assert(f.Size(), qt.Equals, int64(len(testString1)))

	result, err := io.ReadAll(f)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString1)
}

func TestCreateAndReadAll(t *testing.T) {
	c := qt.New(t)

	raw := build(c, map[string]string{"test": testString1, "test2": testString2})
	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)

	second, err := ar.ReadAll("test2")
	c.Assert(err, qt.IsNil)
	c.Assert(string(second), qt.Equals, testString2)

	first, err := ar.ReadAll("test")
	c.Assert(err, qt.IsNil)
	c.Assert(string(first), qt.Equals, testString1)
}

func TestHeader(t *testing.T) {
	c := qt.New(t)

	raw := build(c, map[string]string{"b": testString2, "a": testString1, "empty": ""})
	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)

	h := ar.Header()
	c.Assert(h.Author, qt.Equals, "devblok")
	c.Assert(h.Version, qt.Equals, int64(1))
	c.Assert(ar.Names(), qt.DeepEquals, []string{"a", "b", "empty"})

	a, err := ar.Stat("a")
	c.Assert(err, qt.IsNil)
	b, err := ar.Stat("b")
	c.Assert(err, qt.IsNil)
	c.Assert(a.Offset, qt.Equals, int64(0))
	c.Assert(b.Offset, qt.Equals, a.CompressedSize)

	empty, err := ar.ReadAll("empty")
	c.Assert(err, qt.IsNil)
	c.Assert(empty, qt.HasLen, 0)
}

func TestDeterministicOutput(t *testing.T) {
	c := qt.New(t)

	files := map[string]string{"x": testString1, "y": testString2, "z": "z"}
	c.Assert(build(c, files), qt.DeepEquals, build(c, files))
}

func TestNotFound(t *testing.T) {
	c := qt.New(t)

	ar, err := kar.Open(bytes.NewReader(build(c, map[string]string{"test": testString1})))
	c.Assert(err, qt.IsNil)

	_, err = ar.Open("missing")
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.IsTrue)
	_, err = ar.ReadAll("missing")
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.IsTrue)
}

func TestDuplicateName(t *testing.T) {
	c := qt.New(t)

	builder := kar.NewBuilder(testHeader())
	c.Assert(builder.Add("test", strings.NewReader(testString1)), qt.IsNil)
	err := builder.Add("test", strings.NewReader(testString2))
	c.Assert(errors.Is(err, kar.ErrDuplicateName), qt.IsTrue)
	c.Assert(builder.Len(), qt.Equals, 1)
}

func TestConcurrentAdd(t *testing.T) {
	c := qt.New(t)

	builder := kar.NewBuilder(testHeader())
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		name := fmt.Sprintf("file%02d", i)
		g.Go(func() error {
			return builder.Add(name, strings.NewReader(strings.Repeat(name, 64)))
		})
	}
	c.Assert(g.Wait(), qt.IsNil)
	c.Assert(builder.Len(), qt.Equals, 16)

	var buf bytes.Buffer
	_, err := builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)

	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	c.Assert(err, qt.IsNil)
	data, err := ar.ReadAll("file07")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, strings.Repeat("file07", 64))
}

func TestOpenCorrupted(t *testing.T) {
	c := qt.New(t)

	raw := build(c, map[string]string{"test": testString1})

	tests := []struct {
		about string
		data  []byte
	}{{
		about: "empty",
		data:  nil,
	}, {
		about: "wrong magic",
		data:  append([]byte("TAR\x00"), raw[4:]...),
	}, {
		about: "truncated preamble",
		data:  raw[:6],
	}, {
		about: "truncated header",
		data:  raw[:20],
	}, {
		about: "negative header size",
		data:  append([]byte("KAR\x00\xff\xff\xff\xff\xff\xff\xff\xff"), raw[12:]...),
	}}

	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			_, err := kar.Open(bytes.NewReader(test.data))
			c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue, qt.Commentf("%v", err))
		})
	}
}

func TestOpenFile(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "opentest.kar")
	raw := build(c, map[string]string{"test/test1.txt": "this is a test", "test/test2.txt": "this is another test"})
	c.Assert(os.WriteFile(path, raw, 0o644), qt.IsNil)

	f, err := kar.OpenFile(path)
	c.Assert(err, qt.IsNil)
	defer f.Close()

	data, err := f.ReadAll("test/test1.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "this is a test")

	data, err = f.ReadAll("test/test2.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "this is another test")
}

func TestOpenFileMissing(t *testing.T) {
	c := qt.New(t)

	_, err := kar.OpenFile(filepath.Join(t.TempDir(), "missing.kar"))
	c.Assert(err, qt.Not(qt.IsNil))
}
