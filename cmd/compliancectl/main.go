package main

import "auditwatch/internal/cli"

func main() {
	cli.Execute()
}
