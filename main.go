package main

import "github.com/benedict-erwin/wafanalyzer/cmd"

func main() {
	cmd.Execute()
}
