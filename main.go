package main

import "gallery/cmd"

func main() {
	cmd.Execute()
}
