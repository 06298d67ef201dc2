package main

import "github.com/solscope/sandwichd/cmd"

func main() {
	cmd.Execute()
}
