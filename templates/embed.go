// Package templates embeds the default configuration and progress-log
// skeletons written by ralph init.
package templates

import "embed"

//go:embed config.yaml progress.md tasks.yaml
var FS embed.FS
