package main

import "github.com/hoppxi/glimmer/internal/cmd"

func main() {
	cmd.Execute()
}
