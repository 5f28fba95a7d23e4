package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one rendered entry of the debug dashboard.
type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Namespace string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only HTML view over the raw Badger keyspace
// plus live runtime counters. Debug builds only, never the public surface.
func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// DefaultMapper understands the ledger keyspace. Message keys are
// msg:{pair}:{id} with the id itself carrying the creation nanos, so the
// timestamp column is recovered from the key alone.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Namespace: "default",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	switch parts[0] {
	case "msg":
		row.Type = "MESSAGE"
		if len(parts) >= 4 {
			row.Namespace = parts[1] + ":" + parts[2]
			row.EntityID = shorten(parts[3])
			if tsNano, err := strconv.ParseInt(strings.SplitN(parts[3], "-", 2)[0], 10, 64); err == nil {
				row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
			}
		}
		var payload struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(val, &payload); err == nil {
			row.Detail = payload.Content
		}
	case "user":
		row.Type = "USER"
		if len(parts) >= 3 {
			row.Namespace = parts[1]
			row.EntityID = shorten(parts[2])
		}
		row.Detail = string(val)
	case "rel":
		row.Type = "RELATIONSHIP"
		if len(parts) >= 2 {
			row.EntityID = shorten(parts[1])
		}
		row.Detail = string(val)
	}
	return row
}

func shorten(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
