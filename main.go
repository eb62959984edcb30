package main

import "github.com/soundrelay/soundrelay/cmd"

func main() {
	cmd.Execute()
}
