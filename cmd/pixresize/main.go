package main

import "pixresize/cmd"

func main() {
	cmd.Execute()
}
