package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Calibrations table - per-channel fingertip distance ranges
		`CREATE TABLE IF NOT EXISTS calibrations (
			channel TEXT PRIMARY KEY CHECK(channel IN ('volume', 'brightness')),
			min_distance REAL NOT NULL,
			max_distance REAL NOT NULL CHECK(max_distance > min_distance),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Events table - history of triggers and failures
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			value REAL NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
