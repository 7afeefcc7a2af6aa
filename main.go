package main

import "deploycli/cmd"

func main() {
	cmd.Execute()
}
