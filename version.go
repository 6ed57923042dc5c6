package lendflow

import _ "embed"

// Version is the release version of lendflow, read from the VERSION file.
//
//go:embed VERSION
var Version string
