// Package main is the entry point for the fightmetrics CLI, which ingests
// scraped MMA records and builds leakage-free pre-fight feature datasets.
package main

import "github.com/pable/go-fight-metrics/cmd"

func main() {
	cmd.Execute()
}
