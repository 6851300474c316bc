// Package all wires every built-in storage backend into the storage factory.
// It exists for side effects only:
//
//	import _ "hanami/internal/storage/all"
//
// after which storage.New accepts the kinds "memory", "mssql", "mysql",
// "postgres" and "sqlite". A binary that needs fewer backends can import the
// backend packages individually instead.
package all

import (
	_ "hanami/internal/storage/memory"
	_ "hanami/internal/storage/mssql"
	_ "hanami/internal/storage/mysql"
	_ "hanami/internal/storage/postgres"
	_ "hanami/internal/storage/sqlite"
)
