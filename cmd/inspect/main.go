package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Offline ledger inspector. Opens the database read-only so it can run next
// to a live server process.
func main() {
	dbPath := flag.String("db", "/tmp/lovefindme/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, user:, rel:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).
		Render(fmt.Sprintf("  ====== Ledger inspector (%s) ======", *prefix)))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Sender", "Receiver", "Detail"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Secondary references only point back to primary keys
			if strings.HasPrefix(key, "msgref:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

type messageRow struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toRow(key string, val []byte) []string {
	rowType := "RAW"
	timestamp := "--:--:--"
	sender, receiver := "--------", "--------"
	detail := fmt.Sprintf("Size: %d bytes", len(val))

	switch {
	case strings.HasPrefix(key, "msg:"):
		var m messageRow
		if err := json.Unmarshal(val, &m); err == nil {
			rowType = "MESSAGE"
			timestamp = m.CreatedAt.Format("15:04:05")
			sender = shorten(m.Sender)
			receiver = shorten(m.Receiver)
			detail = m.Content
		}
	case strings.HasPrefix(key, "user:"):
		rowType = "USER"
		detail = string(val)
	case strings.HasPrefix(key, "rel:"):
		rowType = "RELATIONSHIP"
		detail = string(val)
	}

	return []string{key, rowType, timestamp, sender, receiver, detail}
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
