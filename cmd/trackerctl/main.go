package main

import "github.com/Nikhil-Doal/tracker/internal/cli"

func main() {
	cli.Execute()
}
