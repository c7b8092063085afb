package main

import "github.com/KaramelBytes/rams-cli/cmd"

func main() {
	cmd.Execute()
}
