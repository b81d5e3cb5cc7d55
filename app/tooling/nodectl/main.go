// This program sends commands to a running node.
package main

import "github.com/ledgerworks/powchain/app/tooling/nodectl/cmd"

func main() {
	cmd.Execute()
}
