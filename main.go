package main

import "qfsrun/cmd"

func main() {
	cmd.Execute()
}
