package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS inspections (
		id                   uuid PRIMARY KEY,
		reference            text NOT NULL UNIQUE DEFAULT ('INS-' || upper(substr(md5(random()::text), 1, 10))),
		country              text NOT NULL,
		accident_type        text NOT NULL,
		status               text NOT NULL,
		policy_number        text,
		claim_number         text,
		created_at           timestamptz NOT NULL,
		submitted_at         timestamptz NOT NULL,
		insured_name         text,
		insured_document     text,
		insured_phone        text,
		insured_email        text,
		identity_source      text,
		identity_confidence  real NOT NULL DEFAULT 0,
		identity_validated   boolean NOT NULL DEFAULT false,
		vehicle_plate        text,
		vehicle_vin          text,
		vehicle_brand        text,
		vehicle_model        text,
		vehicle_year         integer,
		vehicle_color        text,
		vehicle_usage        text,
		vehicle_mileage      integer,
		vehicle_garaged      boolean NOT NULL DEFAULT false,
		has_third_party      boolean NOT NULL DEFAULT false,
		third_party_name     text,
		third_party_document text,
		third_party_phone    text,
		third_party_plate    text,
		third_party_vehicle  text,
		scene_latitude       double precision,
		scene_longitude      double precision,
		scene_address        text,
		scene_description    text,
		police_present       boolean NOT NULL DEFAULT false,
		police_report_number text,
		has_witnesses        boolean NOT NULL DEFAULT false,
		photo_count          integer NOT NULL DEFAULT 0,
		damage_count         integer NOT NULL DEFAULT 0,
		risk_score           integer NOT NULL,
		quality_score        integer NOT NULL,
		tags                 text[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS inspection_photos (
		id            uuid PRIMARY KEY,
		inspection_id uuid NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		photo_type    text NOT NULL,
		category      text NOT NULL,
		angle         text NOT NULL,
		role          text,
		image         text NOT NULL,
		description   text,
		latitude      double precision,
		longitude     double precision,
		captured_at   timestamptz,
		accepted      boolean
	)`,
	`CREATE INDEX IF NOT EXISTS inspection_photos_inspection_idx ON inspection_photos (inspection_id)`,
	`CREATE TABLE IF NOT EXISTS damage_findings (
		inspection_id     uuid NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
		photo_id          uuid NOT NULL,
		ordinal           integer NOT NULL,
		part              text NOT NULL,
		type              text NOT NULL,
		severity          text NOT NULL,
		structural_impact boolean NOT NULL DEFAULT false,
		mechanical_impact boolean NOT NULL DEFAULT false,
		safety_impact     boolean NOT NULL DEFAULT false,
		confidence        real NOT NULL DEFAULT 0,
		PRIMARY KEY (inspection_id, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS inspection_consents (
		inspection_id uuid PRIMARY KEY REFERENCES inspections(id) ON DELETE CASCADE,
		accepted      boolean NOT NULL,
		signature     text,
		accepted_at   timestamptz,
		address       text
	)`,
}

// Migrate creates the submission tables when they are missing.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	for n, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			logger.Error("schema statement failed", "statement", n, "error", err)
			return fmt.Errorf("migrate statement %d: %w", n, err)
		}
	}
	logger.Info("schema up to date", "statements", len(schema))
	return nil
}
