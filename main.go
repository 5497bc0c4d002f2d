package main

import "github.com/strangelove-ventures/cctp-payroll/cmd"

func main() {
	cmd.Execute()
}
