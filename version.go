package teiinfo

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version of the toolkit, from the VERSION file.
var Version = strings.TrimSpace(version)
