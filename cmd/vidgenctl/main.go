package main

import (
	"fmt"
	"os"

	"vidgend/internal/genctl"
)

func main() {
	if err := genctl.BuildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
