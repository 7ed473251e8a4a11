// Command mrt runs the mental rotation task locally, hosts it over HTTP or
// exposes its planning tools over MCP.
package main

func main() {
	Execute()
}
