package main

import "github.com/Beastly713/quorum/cmd"

func main() {
	cmd.Execute()
}
