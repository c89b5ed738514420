package main

import "github.com/emrgen/contentstore/cmd"

func main() {
	cmd.Execute()
}
