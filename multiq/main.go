// Package main is the entry point of the multiq command.
package main

import "github.com/sarchlab/multiq/multiq/cmd"

func main() {
	cmd.Execute()
}
