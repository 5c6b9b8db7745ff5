// Command qsag builds sag maps of rotationally symmetric surfaces described
// in the Forbes Q-polynomial bases.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agbru/qsag/internal/app"
	apperrors "github.com/agbru/qsag/internal/errors"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if app.HasVersionFlag(args[1:]) {
		if err := app.PrintVersion(os.Stdout, app.HasJSONFlag(args[1:])); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(context.Background(), os.Stdout)
}
