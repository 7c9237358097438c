package main

import "github.com/twiced-technology-gmbh/taskdigest/cmd"

func main() {
	cmd.Execute()
}
