package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDirMode  = fs.ModeDir | 0o755
	defaultFileMode = 0o644
)

// Seed is the YAML description of a filesystem tree.
type Seed struct {
	Home string      `yaml:"home"`
	Root []SeedEntry `yaml:"root"`
}

// SeedEntry describes one node. Exactly one of Dir or File is set.
type SeedEntry struct {
	Dir      string      `yaml:"dir,omitempty"`
	File     string      `yaml:"file,omitempty"`
	Mode     string      `yaml:"mode,omitempty"`
	Content  string      `yaml:"content,omitempty"`
	Children []SeedEntry `yaml:"children,omitempty"`
}

// Tree is an immutable node tree with a home directory.
type Tree struct {
	root *Dir
	home []string
}

func ParseSeed(data []byte) (*Tree, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse filesystem seed: %w", err)
	}
	return Build(seed, time.Now())
}

// Build materialises seed into a tree whose nodes carry modTime.
func Build(seed Seed, modTime time.Time) (*Tree, error) {
	root := &Dir{
		children: make(map[string]Node),
		mode:     defaultDirMode,
		modTime:  modTime,
	}
	if err := addEntries(root, seed.Root, modTime, "/"); err != nil {
		return nil, err
	}

	t := &Tree{root: root, home: splitPath(seed.Home)}
	node, err := t.lookup(t.home)
	if err != nil {
		return nil, fmt.Errorf("home %q: %w", seed.Home, err)
	}
	if !node.IsDir() {
		return nil, fmt.Errorf("home %q: %w", seed.Home, ErrNotADirectory)
	}
	return t, nil
}

func addEntries(parent *Dir, entries []SeedEntry, modTime time.Time, where string) error {
	for _, entry := range entries {
		node, err := buildNode(entry, modTime, where)
		if err != nil {
			return err
		}
		if _, exists := parent.children[node.Name()]; exists {
			return fmt.Errorf("duplicate entry %q in %s", node.Name(), where)
		}
		parent.children[node.Name()] = node
	}
	return nil
}

func buildNode(entry SeedEntry, modTime time.Time, where string) (Node, error) {
	dir := strings.TrimSpace(entry.Dir)
	file := strings.TrimSpace(entry.File)
	switch {
	case dir == "" && file == "":
		return nil, fmt.Errorf("entry in %s: dir or file is required", where)
	case dir != "" && file != "":
		return nil, fmt.Errorf("entry in %s: dir and file are mutually exclusive", where)
	}
	name := dir + file
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("entry in %s: %w", where, err)
	}

	if file != "" {
		if len(entry.Children) > 0 {
			return nil, fmt.Errorf("file %q in %s cannot have children", name, where)
		}
		mode, err := parseMode(entry.Mode, defaultFileMode)
		if err != nil {
			return nil, fmt.Errorf("file %q in %s: %w", name, where, err)
		}
		return &File{name: name, content: entry.Content, mode: mode, modTime: modTime}, nil
	}

	if entry.Content != "" {
		return nil, fmt.Errorf("dir %q in %s cannot have content", name, where)
	}
	mode, err := parseMode(entry.Mode, 0o755)
	if err != nil {
		return nil, fmt.Errorf("dir %q in %s: %w", name, where, err)
	}
	d := &Dir{
		name:     name,
		children: make(map[string]Node),
		mode:     fs.ModeDir | mode,
		modTime:  modTime,
	}
	if err := addEntries(d, entry.Children, modTime, strings.TrimSuffix(where, "/")+"/"+name); err != nil {
		return nil, err
	}
	return d, nil
}

func validateName(name string) error {
	if name == "." || name == ".." {
		return fmt.Errorf("invalid name %q", name)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("name %q must not contain /", name)
	}
	return nil
}

func parseMode(raw string, fallback fs.FileMode) (fs.FileMode, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q: %w", raw, err)
	}
	if v > 0o777 {
		return 0, errors.New("mode must be at most 0777")
	}
	return fs.FileMode(v), nil
}

// Home returns the absolute home directory path.
func (t *Tree) Home() string {
	return joinPath(t.home)
}

func (t *Tree) lookup(segs []string) (Node, error) {
	var node Node = t.root
	for _, seg := range segs {
		dir, ok := node.(*Dir)
		if !ok {
			return nil, ErrNotFound
		}
		child, ok := dir.children[seg]
		if !ok {
			return nil, ErrNotFound
		}
		node = child
	}
	return node, nil
}

// expandHome rewrites a leading "~" to the home directory.
func (t *Tree) expandHome(p string) string {
	if p == "~" {
		return t.Home()
	}
	if strings.HasPrefix(p, "~/") {
		return t.Home() + p[1:]
	}
	return p
}
