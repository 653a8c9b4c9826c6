package main

import "github.com/dmaret/interp/cmd/interpctl/cmd"

func main() {
	cmd.Execute()
}
