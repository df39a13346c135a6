package main

import "github.com/Johannes-Berggren/CommitQuery/cmd"

func main() {
	cmd.Execute()
}
