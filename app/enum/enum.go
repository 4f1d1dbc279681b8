// Package enum defines typed enumerations shared across the application.
// The types are private, the generated wrappers expose typed values with
// parsing and string conversion.
package enum

//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower
type theme int

const (
	themeDark theme = iota
	themeLight
)

//go:generate go run github.com/go-pkgz/enum@latest -type dbType -lower
type dbType int

const (
	dbTypeSQLite   dbType = iota // enum:alias=sqlite
	dbTypePostgres               // enum:alias=postgres
)
