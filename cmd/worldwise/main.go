// Command worldwise tracks visited cities and serves the cities API.
package main

import "github.com/mesh-intelligence/worldwise/internal/cli"

func main() {
	cli.Execute()
}
