package main

import "mvsat/internal/cli"

func main() {
	cli.Execute()
}
