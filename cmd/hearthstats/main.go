package main

import (
	"hearthstats/cmd/hearthstats/commands"
)

func main() {
	commands.Execute()
}
