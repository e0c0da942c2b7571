package main

import (
	"os"

	rebotcmder "github.com/psplover16/line-ai-rebot/cmd/rebot"
)

func main() {
	cmd := rebotcmder.NewRebotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
