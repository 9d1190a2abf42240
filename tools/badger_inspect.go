package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Dumps the mod state store as a table: metadata records, order indices, and
// enablement flags. Read-only; safe to run against a live database copy.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan (default: everything)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Mod", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				kind, mod, value := describe(key, v)
				table.Append([]string{key, kind, mod, value})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d keys under prefix %q\n", count, *prefix)
}

func describe(key string, value []byte) (kind, mod, detail string) {
	switch {
	case strings.HasPrefix(key, "mod:"):
		detail = string(value)
		var record struct {
			ExternalID  uint64 `json:"externalId"`
			DisplayName string `json:"displayName"`
		}
		if err := json.Unmarshal(value, &record); err == nil {
			detail = fmt.Sprintf("%s (external %d)", record.DisplayName, record.ExternalID)
		}
		return "MOD", strings.TrimPrefix(key, "mod:"), detail
	case strings.HasPrefix(key, "ModOrder_"):
		return "ORDER", strings.TrimPrefix(key, "ModOrder_"), "index " + string(value)
	case strings.HasPrefix(key, "ModActive_"):
		state := "disabled"
		if string(value) == "1" {
			state = "enabled"
		}
		return "FLAG", strings.TrimPrefix(key, "ModActive_"), state
	default:
		return "RAW", "-", fmt.Sprintf("%d bytes", len(value))
	}
}

func openDB(path string) (*badger.DB, error) {
	options := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil)
	return badger.Open(options)
}
