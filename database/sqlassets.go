package sqlassets

import _ "embed"

//go:embed schema/postgres/mb_message.sql
var PostgresMessagesSQL string

//go:embed schema/postgres/upgrade_release.sql
var PostgresReleaseSQL string

//go:embed schema/sqlite/mb_message.sql
var SQLiteMessagesSQL string

//go:embed schema/sqlite/upgrade_release.sql
var SQLiteReleaseSQL string
