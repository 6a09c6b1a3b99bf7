package vfs

import (
	"fmt"

	"github.com/enesbrtc/enes.codes/configs"
)

// LoadTree parses one of the shipped filesystem seeds, e.g. "local" or "ssh".
func LoadTree(name string) (*Tree, error) {
	data, err := configs.Filesystems.ReadFile("filesystem/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read %s filesystem seed: %w", name, err)
	}
	tree, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("%s filesystem: %w", name, err)
	}
	return tree, nil
}

// LoadLocal returns the workstation filesystem positioned at home.
func LoadLocal() (*Local, error) {
	tree, err := LoadTree("local")
	if err != nil {
		return nil, err
	}
	return NewLocal(tree), nil
}

// LoadRemote returns the filesystem of the simulated SSH host.
func LoadRemote() (*Remote, error) {
	tree, err := LoadTree("ssh")
	if err != nil {
		return nil, err
	}
	return NewRemote(tree), nil
}
