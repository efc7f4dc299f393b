// Package postgres implements the store repositories on PostgreSQL through
// database/sql and the pgx stdlib driver.
//
// The schema is shipped as embedded goose migrations; call [Migrate] once at
// startup before handing the repositories to the Builder.
package postgres
