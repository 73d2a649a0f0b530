// main is the entry point for the hypolog CLI.
package main

import (
	"github.com/huangsam/hypolog/cmd"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/internal/datastore"
)

func main() {
	err := cmd.Execute()
	datastore.CloseStore()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
