// Package migrations embeds the notification schema and applies it on boot.
package migrations

import (
	"context"
	"embed"

	"github.com/md-rashed-zaman/courtbook/libs/db"
)

//go:embed *.sql
var files embed.FS

const advisoryLockID = 727002

func Apply(ctx context.Context, pool *db.Pool) ([]string, error) {
	return db.Migrate(ctx, pool, files, advisoryLockID)
}
