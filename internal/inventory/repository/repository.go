// Package repository contains the persistence layer for the inventory
// service: catalog items, lots, the append-only movement ledger, stock
// projections, shifts, and production batches.
package repository

import "strconv"

func itoa(n int) string {
	return strconv.Itoa(n)
}
