package main

import "github.com/signalcorps/beacon/cmd"

func main() {
	cmd.Execute()
}
