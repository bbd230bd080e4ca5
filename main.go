package main

import "github.com/antbuild/golox/cmd"

func main() {
	cmd.Execute()
}
