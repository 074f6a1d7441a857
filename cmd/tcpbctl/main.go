package main

import "github.com/mtzgroup/tcpb-client/internal/cli"

func main() {
	cli.Run()
}
