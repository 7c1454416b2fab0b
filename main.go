package main

import (
	"context"
	"os"

	kagura "github.com/LeBulldoge/kagura/cmd"
	"github.com/LeBulldoge/kagura/internal/startup"
)

func main() {
	os.Exit(startup.ExitCode(kagura.Execute(context.Background())))
}
