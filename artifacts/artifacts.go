package artifacts

import (
	"context"
	"io"
	"path"
	"time"
)

// TimestampLayout is YYYY-MM-DD_HH-MM-SS.
const TimestampLayout = "2006-01-02_15-04-05"

type Writer interface {
	PutArtifact(ctx context.Context, key string, r io.Reader) error
}

// Key returns <prefix>/<table>_<timestamp>.csv, with t rendered in UTC.
func Key(prefix, table string, t time.Time) string {
	name := table + "_" + t.UTC().Format(TimestampLayout) + ".csv"
	if len(prefix) == 0 {
		return name
	}
	return path.Join(prefix, name)
}
