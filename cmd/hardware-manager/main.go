package main

import "hardware-manager/cmd"

func main() {
	cmd.Execute()
}
