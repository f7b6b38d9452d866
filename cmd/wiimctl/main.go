package main

import "github.com/wiimctl/wiimctl/internal/cli"

func main() {
	cli.Execute()
}
