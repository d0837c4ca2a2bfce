package main

import "dvrgrab/cmd"

func main() {
	cmd.Execute()
}
