// Fundwatch serves Vanguard fund holdings lookups behind per-client rate
// limits, a response cache and pre-generated static snapshots.
//
// Usage:
//
//	# Start the API server with defaults and FUNDWATCH_* overrides
//	fundwatch serve
//
//	# Start with a configuration file
//	fundwatch serve --config /etc/fundwatch/config.yaml
//
//	# Regenerate the static snapshots once
//	fundwatch snapshot generate
//
//	# List stored snapshots as CSV
//	fundwatch snapshot list --output csv
//
//	# Check a configuration file
//	fundwatch validate --config config.yaml
package main

func main() {
	Execute()
}
