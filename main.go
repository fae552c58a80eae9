// Package main is the entry point for the phasegate CLI.
package main

import "phasegate.dev/pkg/phasegate/cmd"

func main() {
	cmd.Execute()
}
