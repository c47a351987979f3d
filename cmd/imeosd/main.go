// Package main is the entry point for the imeosd input-method
// indicator daemon.
package main

func main() {
	Execute()
}
