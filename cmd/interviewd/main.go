package main

import "github.com/mind-engage/mindengage-interview/internal/cli"

func main() {
	cli.Execute()
}
