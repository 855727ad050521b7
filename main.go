package main

import "tfscope/cmd"

func main() {
	cmd.Execute()
}
