// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/rover.go/pkg/cli/cmds/rover"
)
