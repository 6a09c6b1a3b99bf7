// Package web embeds the browser terminal client.
package web

import "embed"

//go:embed static
var Assets embed.FS
