package main

import "github.com/RyanBlaney/sonido-midi/cmd"

func main() {
	cmd.Execute()
}
