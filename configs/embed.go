package configs

import "embed"

// Filesystems contains the seed trees for the local and remote filesystems.
//
//go:embed filesystem/*.yaml
var Filesystems embed.FS

// Content holds the text printed by the informational commands.
//
//go:embed content.yaml
var Content []byte
