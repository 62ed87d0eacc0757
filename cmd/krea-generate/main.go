package main

import (
	"go-krea-generate/cmd/krea-generate/cmd"
)

func main() {
	cmd.Execute()
}
