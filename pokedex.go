// Package pokedex holds the web resources embedded into the server binary.
package pokedex

import "embed"

//go:embed templates static
var Files embed.FS
