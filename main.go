package main

import "github.com/youzhen0x38/ibr/cmd"

func main() {
	cmd.Execute()
}
