package main

import "github.com/plip123/nft-marketplace/internal/cli"

func main() {
	cli.Execute()
}
