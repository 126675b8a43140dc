package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Calibration is a persisted calibration profile for one channel.
type Calibration struct {
	Channel     gesture.Channel
	MinDistance float64
	MaxDistance float64
	UpdatedAt   time.Time
}

// Range returns the profile as a gesture.Calibration.
func (c *Calibration) Range() gesture.Calibration {
	return gesture.Calibration{MinDistance: c.MinDistance, MaxDistance: c.MaxDistance}
}

// CalibrationRepository provides access to calibration profiles.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Upsert validates and stores the profile, replacing any existing one for
// the same channel.
func (r *CalibrationRepository) Upsert(c *Calibration) error {
	if _, err := gesture.ParseChannel(string(c.Channel)); err != nil {
		return err
	}
	if err := c.Range().Validate(); err != nil {
		return err
	}

	c.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO calibrations (channel, min_distance, max_distance, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(channel) DO UPDATE SET
		   min_distance = excluded.min_distance,
		   max_distance = excluded.max_distance,
		   updated_at = excluded.updated_at`,
		string(c.Channel), c.MinDistance, c.MaxDistance, c.UpdatedAt,
	)
	return err
}

// Get retrieves the profile for a channel.
func (r *CalibrationRepository) Get(ch gesture.Channel) (*Calibration, error) {
	c := &Calibration{}
	var channel string

	err := r.db.QueryRow(
		`SELECT channel, min_distance, max_distance, updated_at
		 FROM calibrations WHERE channel = ?`,
		string(ch),
	).Scan(&channel, &c.MinDistance, &c.MaxDistance, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Channel = gesture.Channel(channel)
	return c, nil
}

// List retrieves all stored profiles ordered by channel.
func (r *CalibrationRepository) List() ([]*Calibration, error) {
	rows, err := r.db.Query(
		`SELECT channel, min_distance, max_distance, updated_at
		 FROM calibrations ORDER BY channel`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Calibration
	for rows.Next() {
		c := &Calibration{}
		var channel string
		if err := rows.Scan(&channel, &c.MinDistance, &c.MaxDistance, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Channel = gesture.Channel(channel)
		profiles = append(profiles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Delete removes the profile for a channel so the configured default applies.
func (r *CalibrationRepository) Delete(ch gesture.Channel) error {
	result, err := r.db.Exec(`DELETE FROM calibrations WHERE channel = ?`, string(ch))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Apply overlays the stored profiles on base and validates the result.
// A stored profile that fails validation is returned as an error.
func (r *CalibrationRepository) Apply(base map[gesture.Channel]gesture.Calibration) (map[gesture.Channel]gesture.Calibration, error) {
	profiles, err := r.List()
	if err != nil {
		return nil, err
	}

	out := make(map[gesture.Channel]gesture.Calibration, len(base))
	for ch, cal := range base {
		out[ch] = cal
	}
	for _, p := range profiles {
		if _, err := gesture.ParseChannel(string(p.Channel)); err != nil {
			return nil, err
		}
		if err := p.Range().Validate(); err != nil {
			return nil, err
		}
		out[p.Channel] = p.Range()
	}
	return out, nil
}
