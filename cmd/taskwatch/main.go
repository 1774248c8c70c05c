package main

import "github.com/vietddude/taskwatch/internal/cli"

func main() {
	cli.Execute()
}
