package main

import "github.com/mvp-joe/propscan/internal/cli"

func main() {
	cli.Execute()
}
