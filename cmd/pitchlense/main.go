package main

import "github.com/pitchlense/pitchlense/cmd/pitchlense/cmd"

func main() {
	cmd.Execute()
}
