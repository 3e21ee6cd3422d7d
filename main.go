package main

import "github.com/Alturino/bookstore/cmd"

func main() {
	cmd.Start()
}
