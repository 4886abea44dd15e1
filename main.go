package main

import "github.com/inference-gateway/toolgate/cmd"

func main() {
	cmd.Execute()
}
