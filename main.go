package main

import "social-graph-backend/cmd"

func main() {
	cmd.Execute()
}
