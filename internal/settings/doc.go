// Package settings provides the persistent printer settings store.
//
// Settings are key/value rows in SQLite, keyed by a prefixed id whose
// prefix encodes the value type expected by clients: S_ (string),
// B_ (bool), N_ (number), F_ (float). The type column carries the same
// information as a numeric discriminator so clients can decode values
// without parsing the key.
//
// A fixed set of default keys is seeded at boot with EnsureDefaults.
// Seeding is insert-if-absent, so values a user has already changed are
// never overwritten and EnsureDefaults is safe to run on every startup.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + single-writer connection pool).
package settings
