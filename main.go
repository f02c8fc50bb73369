package main

import "github.com/janbar/picpro150/cmd"

func main() {
	cmd.Execute()
}
