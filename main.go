package main

import "locallink-be/cmd"

func main() {
	cmd.Execute()
}
