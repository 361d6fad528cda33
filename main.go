package main

import "github.com/mj1618/desktop-extract/cmd"

func main() {
	cmd.Execute()
}
