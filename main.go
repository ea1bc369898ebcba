package main

import (
	"github.com/meysamhadeli/loopai/cmd"
)

func main() {
	cmd.Execute()
}
