package main

import "github.com/davarch/ci-pulse/cmd/ci-pulse/cli"

func main() {
	cli.Execute()
}
