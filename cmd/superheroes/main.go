package main

import "github.com/marshallshelly/superheroes/cmd/superheroes/commands"

func main() {
	commands.Execute()
}
