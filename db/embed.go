// Package db embeds the order store schema.
package db

import "embed"

// Migrations holds the DDL files, applied in lexical order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
