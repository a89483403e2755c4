// Package main provides the goferseo command line.
//
// Usage:
//
//	goferseo init
//	goferseo serve
//	goferseo robots
//	goferseo ping
//
// See --help for all available options.
package main

func main() {
	Execute()
}
