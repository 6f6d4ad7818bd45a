package main

import "github.com/ganot/timeflow/cmd/timeflow/root"

func main() {
	root.Execute()
}
