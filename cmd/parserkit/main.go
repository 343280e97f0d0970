// Package main provides the parserkit CLI for streaming log sources through
// sandboxed parser plugins.
package main

func main() {
	Execute()
}
