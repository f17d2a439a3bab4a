package main

import "naksha-backend/cmd"

func main() {
	cmd.Run()
}
