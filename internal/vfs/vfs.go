package vfs

import (
	"path"
	"strings"
	"sync"
)

// Filesystem is a read-only tree with a movable current-directory cursor.
type Filesystem interface {
	ListDirectory(path string) ([]Node, error)
	ChangeDirectory(path string) error
	ReadFile(path string) ([]string, error)
	CurrentPath() string
	Home() string
	// Reset moves the cursor back to the home directory.
	Reset()
}

var (
	_ Filesystem = (*Local)(nil)
	_ Filesystem = (*Remote)(nil)
)

// Local walks paths one segment at a time from the root or the cursor.
// ".." pops one level and resolution aborts at the first segment that does
// not exist.
type Local struct {
	tree *Tree
	mu   sync.Mutex
	cwd  []string
}

func NewLocal(tree *Tree) *Local {
	return &Local{tree: tree, cwd: append([]string(nil), tree.home...)}
}

func (l *Local) Home() string {
	return l.tree.Home()
}

func (l *Local) CurrentPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return joinPath(l.cwd)
}

func (l *Local) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cwd = append([]string(nil), l.tree.home...)
}

func (l *Local) ListDirectory(p string) ([]Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	target := strings.TrimSpace(p)
	if target == "" {
		target = "."
	}
	_, node, err := l.walk(target)
	if err != nil {
		return nil, &PathError{Op: "ls", Path: p, Err: ErrNotFound}
	}
	dir, ok := node.(*Dir)
	if !ok {
		return nil, &PathError{Op: "ls", Path: p, Err: ErrNotFound}
	}
	return dir.Entries(), nil
}

func (l *Local) ChangeDirectory(p string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	target := strings.TrimSpace(p)
	if target == "" {
		target = "~"
	}
	segs, node, err := l.walk(target)
	if err != nil {
		return &PathError{Op: "cd", Path: p, Err: err}
	}
	if !node.IsDir() {
		return &PathError{Op: "cd", Path: p, Err: ErrNotADirectory}
	}
	l.cwd = segs
	return nil
}

func (l *Local) ReadFile(p string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, node, err := l.walk(p)
	if err != nil {
		return nil, &PathError{Op: "cat", Path: p, Err: ErrNotFound}
	}
	file, ok := node.(*File)
	if !ok {
		return nil, &PathError{Op: "cat", Path: p, Err: ErrIsADirectory}
	}
	return file.Lines(), nil
}

func (l *Local) walk(p string) ([]string, Node, error) {
	p = l.tree.expandHome(p)

	var segs []string
	if !strings.HasPrefix(p, "/") {
		segs = append(segs, l.cwd...)
	}
	stack := []Node{l.tree.root}
	for i := range segs {
		node, err := l.tree.lookup(segs[:i+1])
		if err != nil {
			return nil, nil, err
		}
		stack = append(stack, node)
	}

	for _, part := range splitPath(p) {
		switch part {
		case ".":
			continue
		case "..":
			if _, ok := stack[len(stack)-1].(*Dir); !ok {
				return nil, nil, ErrNotADirectory
			}
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
				stack = stack[:len(stack)-1]
			}
			continue
		}
		dir, ok := stack[len(stack)-1].(*Dir)
		if !ok {
			return nil, nil, ErrNotADirectory
		}
		child, found := dir.children[part]
		if !found {
			return nil, nil, ErrNotFound
		}
		segs = append(segs, part)
		stack = append(stack, child)
	}
	return segs, stack[len(stack)-1], nil
}

// Remote resolves paths lexically against the cursor before looking them up,
// so "a/../b" works even when "a" does not exist.
type Remote struct {
	tree *Tree
	mu   sync.Mutex
	cwd  string
}

func NewRemote(tree *Tree) *Remote {
	return &Remote{tree: tree, cwd: tree.Home()}
}

func (r *Remote) Home() string {
	return r.tree.Home()
}

func (r *Remote) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cwd
}

func (r *Remote) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cwd = r.tree.Home()
}

func (r *Remote) ListDirectory(p string) ([]Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := strings.TrimSpace(p)
	if target == "" {
		target = "."
	}
	node, err := r.tree.lookup(splitPath(r.resolve(target)))
	if err != nil || !node.IsDir() {
		return nil, &PathError{Op: "ls", Path: p, Err: ErrNotFound}
	}
	return node.(*Dir).Entries(), nil
}

func (r *Remote) ChangeDirectory(p string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := strings.TrimSpace(p)
	if target == "" {
		target = "~"
	}
	resolved := r.resolve(target)
	node, err := r.tree.lookup(splitPath(resolved))
	if err != nil {
		return &PathError{Op: "cd", Path: p, Err: ErrNotFound}
	}
	if !node.IsDir() {
		return &PathError{Op: "cd", Path: p, Err: ErrNotADirectory}
	}
	r.cwd = resolved
	return nil
}

func (r *Remote) ReadFile(p string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, err := r.tree.lookup(splitPath(r.resolve(p)))
	if err != nil {
		return nil, &PathError{Op: "cat", Path: p, Err: ErrNotFound}
	}
	file, ok := node.(*File)
	if !ok {
		return nil, &PathError{Op: "cat", Path: p, Err: ErrIsADirectory}
	}
	return file.Lines(), nil
}

func (r *Remote) resolve(p string) string {
	p = r.tree.expandHome(p)
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(r.cwd, p)
}
