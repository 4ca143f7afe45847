package main

import (
	// Month tab names and boost dates need Europe/Paris regardless of the
	// host's zoneinfo, so the zone database is compiled in.
	_ "time/tzdata"

	"vinted-ledger/cmd/vinted-ledger/cmd"
)

func main() {
	cmd.Execute()
}
