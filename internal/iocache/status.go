package iocache

import (
	"fmt"
	"sort"

	"github.com/thaafei/domainx/schema"
)

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		fmt.Printf("Last Entry: %s\n", status.LastEntryTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintHistoryStatus prints ranking history status information.
func PrintHistoryStatus(status schema.HistoryStatus) {
	fmt.Printf("History Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Run: %s\n", status.OldestRunTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Total Libraries Ranked: %d\n", status.TotalLibraries)
	}
	printTableSizes(status.TableSizes)
}

// PrintStoreStatus prints domain store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	printTableSizes(status.TableSizes)
}

func printTableSizes(sizes map[string]int64) {
	tables := make([]string, 0, len(sizes))
	for t := range sizes {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	fmt.Println("Table Sizes:")
	for _, table := range tables {
		fmt.Printf("  %s: %d rows\n", table, sizes[table])
	}
}
