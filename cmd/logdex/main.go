// logdex - Bugreport Logcat Indexer
//
// logdex turns large Android diagnostic bundles (zipped or plain-text
// bugreports) into persistent, queryable SQLite indexes supporting
// level/tag/pid/time-range filters and full-text search with pagination.
package main

import (
	"os"

	"github.com/droidscope/logdex/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
