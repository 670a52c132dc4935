package storage

// schemaSQL creates the two property tables. The unique identity index is
// the dedup backstop: unit is NOT NULL DEFAULT '' so an absent unit and an
// empty one compare equal. geom is always derived from (longitude, latitude)
// at write time and never updated on its own.
const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS rental_properties (
		id                 SERIAL PRIMARY KEY,
		postcode           INT NOT NULL,
		unit               TEXT NOT NULL DEFAULT '',
		street_address     TEXT NOT NULL,
		bedroom_num        INT NOT NULL,
		bathroom_num       INT NOT NULL,
		parking_num        INT NOT NULL,
		price              INT NOT NULL,
		property_type      INT NOT NULL,
		record_date        DATE NOT NULL,
		last_recorded_date DATE NOT NULL,
		inactive           BOOLEAN NOT NULL DEFAULT FALSE,
		latitude           DOUBLE PRECISION NOT NULL,
		longitude          DOUBLE PRECISION NOT NULL,
		geom               GEOMETRY(Point, 4326) NOT NULL,
		description        TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_rental_properties_identity
		ON rental_properties (postcode, unit, street_address,
		                      bedroom_num, bathroom_num, parking_num,
		                      property_type, latitude, longitude);
	CREATE INDEX IF NOT EXISTS idx_rental_properties_geom
		ON rental_properties USING GIST (geom);
	CREATE INDEX IF NOT EXISTS idx_rental_properties_postcode
		ON rental_properties (postcode);

	CREATE TABLE IF NOT EXISTS sold_properties (
		id                 SERIAL PRIMARY KEY,
		postcode           INT NOT NULL,
		unit               TEXT NOT NULL DEFAULT '',
		street_address     TEXT NOT NULL,
		bedroom_num        INT NOT NULL,
		bathroom_num       INT NOT NULL,
		parking_num        INT NOT NULL,
		price              INT NOT NULL,
		property_type      INT NOT NULL,
		record_date        DATE NOT NULL,
		last_recorded_date DATE NOT NULL,
		inactive           BOOLEAN NOT NULL DEFAULT FALSE,
		latitude           DOUBLE PRECISION NOT NULL,
		longitude          DOUBLE PRECISION NOT NULL,
		geom               GEOMETRY(Point, 4326) NOT NULL,
		description        TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_sold_properties_identity
		ON sold_properties (postcode, unit, street_address,
		                    bedroom_num, bathroom_num, parking_num,
		                    property_type, latitude, longitude);
	CREATE INDEX IF NOT EXISTS idx_sold_properties_geom
		ON sold_properties USING GIST (geom);
	CREATE INDEX IF NOT EXISTS idx_sold_properties_postcode
		ON sold_properties (postcode);
`

// kNearestFunctionSQL installs the server-side nearest-neighbour procedure.
// Bedroom/bathroom/parking counts are minimum thresholds: a candidate must
// offer at least the requested count. A non-negative range percentage keeps
// only candidates priced within that band around the candidate set's median;
// a negative value disables the price filter. Distance ties break on id so
// results are deterministic.
//
// Ranking and the returned distance_m both use spherical meters. The planar
// <-> operator ranks SRID-4326 points in degrees, which mis-orders mixed
// bearings away from the equator, so it only pre-filters a candidate window
// wider than k through the spatial index; the window is then re-ordered by
// ST_DistanceSphere before the k cut.
const kNearestFunctionSQL = `
	CREATE OR REPLACE FUNCTION get_k_nearest_properties(
		in_longitude        DOUBLE PRECISION,
		in_latitude         DOUBLE PRECISION,
		in_k                INT,
		in_mode             INT,
		in_property_type    INT,
		in_bedroom_num      INT,
		in_bathroom_num     INT,
		in_parking_num      INT,
		in_range_percentage DOUBLE PRECISION
	) RETURNS TABLE (
		id                 INT,
		postcode           INT,
		unit               TEXT,
		street_address     TEXT,
		bedroom_num        INT,
		bathroom_num       INT,
		parking_num        INT,
		price              INT,
		property_type      INT,
		record_date        DATE,
		last_recorded_date DATE,
		inactive           BOOLEAN,
		latitude           DOUBLE PRECISION,
		longitude          DOUBLE PRECISION,
		description        TEXT,
		distance_m         DOUBLE PRECISION
	) AS $fn$
	DECLARE
		origin geometry := ST_SetSRID(ST_MakePoint(in_longitude, in_latitude), 4326);
		median_price DOUBLE PRECISION;
	BEGIN
		IF in_mode = 1 THEN
			IF in_range_percentage >= 0 THEN
				SELECT percentile_cont(0.5) WITHIN GROUP (ORDER BY s.price)
				INTO median_price
				FROM sold_properties s
				WHERE s.inactive = FALSE
				  AND s.property_type = in_property_type
				  AND s.bedroom_num >= in_bedroom_num
				  AND s.bathroom_num >= in_bathroom_num
				  AND s.parking_num >= in_parking_num;
			END IF;

			RETURN QUERY
			SELECT c.id, c.postcode, c.unit, c.street_address,
			       c.bedroom_num, c.bathroom_num, c.parking_num,
			       c.price, c.property_type,
			       c.record_date, c.last_recorded_date, c.inactive,
			       c.latitude, c.longitude, c.description,
			       c.sphere_m
			FROM (
				SELECT s.*, ST_DistanceSphere(s.geom, origin) AS sphere_m
				FROM sold_properties s
				WHERE s.inactive = FALSE
				  AND s.property_type = in_property_type
				  AND s.bedroom_num >= in_bedroom_num
				  AND s.bathroom_num >= in_bathroom_num
				  AND s.parking_num >= in_parking_num
				  AND (in_range_percentage < 0 OR median_price IS NULL
				       OR abs(s.price - median_price) <= median_price * in_range_percentage / 100.0)
				ORDER BY s.geom <-> origin
				LIMIT GREATEST(in_k * 4, 64)
			) c
			ORDER BY c.sphere_m, c.id
			LIMIT in_k;
		ELSE
			IF in_range_percentage >= 0 THEN
				SELECT percentile_cont(0.5) WITHIN GROUP (ORDER BY r.price)
				INTO median_price
				FROM rental_properties r
				WHERE r.inactive = FALSE
				  AND r.property_type = in_property_type
				  AND r.bedroom_num >= in_bedroom_num
				  AND r.bathroom_num >= in_bathroom_num
				  AND r.parking_num >= in_parking_num;
			END IF;

			RETURN QUERY
			SELECT c.id, c.postcode, c.unit, c.street_address,
			       c.bedroom_num, c.bathroom_num, c.parking_num,
			       c.price, c.property_type,
			       c.record_date, c.last_recorded_date, c.inactive,
			       c.latitude, c.longitude, c.description,
			       c.sphere_m
			FROM (
				SELECT r.*, ST_DistanceSphere(r.geom, origin) AS sphere_m
				FROM rental_properties r
				WHERE r.inactive = FALSE
				  AND r.property_type = in_property_type
				  AND r.bedroom_num >= in_bedroom_num
				  AND r.bathroom_num >= in_bathroom_num
				  AND r.parking_num >= in_parking_num
				  AND (in_range_percentage < 0 OR median_price IS NULL
				       OR abs(r.price - median_price) <= median_price * in_range_percentage / 100.0)
				ORDER BY r.geom <-> origin
				LIMIT GREATEST(in_k * 4, 64)
			) c
			ORDER BY c.sphere_m, c.id
			LIMIT in_k;
		END IF;
	END;
	$fn$ LANGUAGE plpgsql STABLE;
`
