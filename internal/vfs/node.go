package vfs

import (
	"errors"
	"io/fs"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("No such file or directory")
	ErrNotADirectory = errors.New("Not a directory")
	ErrIsADirectory  = errors.New("Is a directory")
)

// PathError records a failed filesystem operation. It renders as the single
// line a shell would print, e.g. "cd: nope: No such file or directory".
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + ": " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Node is either a *File or a *Dir.
type Node interface {
	Name() string
	Mode() fs.FileMode
	ModTime() time.Time
	IsDir() bool
	isNode()
}

type File struct {
	name    string
	content string
	mode    fs.FileMode
	modTime time.Time
}

func (f *File) Name() string       { return f.name }
func (f *File) Mode() fs.FileMode  { return f.mode }
func (f *File) ModTime() time.Time { return f.modTime }
func (f *File) IsDir() bool        { return false }
func (f *File) Content() string    { return f.content }
func (f *File) Size() int          { return len(f.content) }
func (*File) isNode()              {}

// Lines splits the content on newlines, ignoring one trailing newline.
func (f *File) Lines() []string {
	if f.content == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(f.content, "\n"), "\n")
}

type Dir struct {
	name     string
	children map[string]Node
	mode     fs.FileMode
	modTime  time.Time
}

func (d *Dir) Name() string       { return d.name }
func (d *Dir) Mode() fs.FileMode  { return d.mode }
func (d *Dir) ModTime() time.Time { return d.modTime }
func (d *Dir) IsDir() bool        { return true }
func (*Dir) isNode()              {}

func (d *Dir) Child(name string) (Node, bool) {
	n, ok := d.children[name]
	return n, ok
}

// Entries returns the children with directories first, then files, each
// group ordered by name.
func (d *Dir) Entries() []Node {
	out := make([]Node, 0, len(d.children))
	for _, n := range d.children {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDir() != out[j].IsDir() {
			return out[i].IsDir()
		}
		li, lj := strings.ToLower(out[i].Name()), strings.ToLower(out[j].Name())
		if li == lj {
			return out[i].Name() < out[j].Name()
		}
		return li < lj
	})
	return out
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}
