// Package database provides an SQLite-backed page cache for refcrawl.
//
// PageDB is an alternative to the JSON file cache in package cache. It keeps
// the same record shape (url, content) and the same keying (hex SHA-1 of the
// URL), but stores every record as a row in a single database file, which is
// easier to copy around than thousands of small files.
//
// We use SQLite via modernc.org/sqlite because the driver is CGO-free and
// the database stays a single file next to the crawl output.
package database
