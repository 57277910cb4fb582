package main

import "github.com/sander-remitly/knapsnack/cmd"

func main() {
	cmd.Execute()
}
