package main

import "github.com/oshokin/kernel-upgrade/cmd/kernel-upgrade/cmd"

func main() {
	cmd.Execute()
}
