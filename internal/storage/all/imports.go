// Package all registers every built-in storage backend with the storage
// package. Import it for side effects:
//
//	import _ "csvload/internal/storage/all"
//
// A binary that needs fewer backends can import the individual packages
// instead.
package all

import (
	_ "csvload/internal/storage/mssql"
	_ "csvload/internal/storage/mysql"
	_ "csvload/internal/storage/postgres"
	_ "csvload/internal/storage/sqlite"
)
