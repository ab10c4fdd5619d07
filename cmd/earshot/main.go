package main

import "github.com/tessro/earshot/internal/cli"

func main() {
	cli.Execute()
}
