package main

import (
	"os"

	"github.com/StorefrontAdmin/StorefrontAdmin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
