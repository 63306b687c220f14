package main

import "github.com/nfrund/chatkit/cmd/chatkit/cmd"

func main() {
	cmd.Execute()
}
