package main

import "github.com/oshokin/reqsync/cmd/reqsync/cmd"

func main() {
	cmd.Execute()
}
