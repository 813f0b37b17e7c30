package main

import "csv-reconciler/cmd"

func main() {
	cmd.Execute()
}
