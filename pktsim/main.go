// Command pktsim runs packet flow simulations described by topology files.
package main

import "github.com/sarchlab/pktflow/pktsim/cmd"

func main() {
	cmd.Execute()
}
