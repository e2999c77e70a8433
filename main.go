// Package main is the entry point for the conformance CLI.
package main

import "lcevc.dev/pkg/conformance/cmd"

func main() {
	cmd.Execute()
}
