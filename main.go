package main

import "tubegrab/internal/cli"

func main() {
	cli.Execute()
}
