package main

import "gachi-analyzer/cmd"

func main() {
	cmd.Execute()
}
