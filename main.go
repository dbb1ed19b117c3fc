// main is the entry point of the gitreport CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/gitreport/cmd"
	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/internal/iocache"
	"github.com/joho/godotenv"
)

// Exit codes of the CLI.
const (
	exitOK         = 0
	exitFatal      = 1
	exitIncomplete = 2 // The report was rendered but carries warnings
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env file is fine
	_ = godotenv.Load()

	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute()
	if profErr := cmd.StopProfiling(); profErr != nil {
		contract.LogWarn("Cannot stop profiling", profErr)
	}

	code := exitCode(err)
	if code == exitFatal {
		_, _ = fmt.Fprintln(os.Stderr, "❌", err)
	}
	return code
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, contract.ErrIncompleteReport):
		return exitIncomplete
	default:
		return exitFatal
	}
}
