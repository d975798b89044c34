package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/iamalbertly/jira-reporting/cmd/sprintctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ue *commands.UsageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
