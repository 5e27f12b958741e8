package main

import "darkroom/cmd"

func main() {
	cmd.Execute()
}
