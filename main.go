package main

import "github.com/ewhall/marquee/cmd"

func main() {
	cmd.Execute()
}
