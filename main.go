// Command studyplan is the study planner frontend: a CLI and an interactive
// terminal UI over the task API served by app/main.go.
package main

import (
	"os"

	"studyplan/app/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
