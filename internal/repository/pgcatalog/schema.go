package pgcatalog

// schema is applied by EnsureSchema. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS images (
	id                TEXT PRIMARY KEY,
	url               TEXT NOT NULL DEFAULT '',
	thumbnail_url     TEXT NOT NULL DEFAULT '',
	original_filename TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '',
	format            TEXT NOT NULL DEFAULT '',
	size_bytes        BIGINT NOT NULL DEFAULT 0,
	width             INTEGER NOT NULL DEFAULT 0,
	height            INTEGER NOT NULL DEFAULT 0,
	resolution        TEXT NOT NULL DEFAULT '',
	orientation       TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	dominant_colors   TEXT[] NOT NULL DEFAULT '{}',
	has_transparency  BOOLEAN NOT NULL DEFAULT FALSE,
	is_animated       BOOLEAN NOT NULL DEFAULT FALSE,
	brightness        TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'processing',
	deleted           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS images_created_at_idx ON images (created_at DESC);

CREATE TABLE IF NOT EXISTS image_metadata (
	image_id       TEXT PRIMARY KEY REFERENCES images (id) ON DELETE CASCADE,
	ai_description TEXT NOT NULL DEFAULT '',
	ai_tags        TEXT[] NOT NULL DEFAULT '{}',
	scene          TEXT NOT NULL DEFAULT '',
	objects        TEXT[] NOT NULL DEFAULT '{}',
	palette        TEXT NOT NULL DEFAULT '',
	ocr_text       TEXT NOT NULL DEFAULT '',
	confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
	processed_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS image_metadata_scene_idx ON image_metadata (lower(scene));
`

const recordColumns = `i.id, i.url, i.thumbnail_url, i.original_filename, i.description, i.tags,
	i.format, i.size_bytes, i.width, i.height, i.resolution, i.orientation, i.category,
	i.dominant_colors, i.has_transparency, i.is_animated, i.brightness, i.status, i.deleted, i.created_at`

const metadataColumns = `m.image_id, m.ai_description, m.ai_tags, m.scene, m.objects,
	m.palette, m.ocr_text, m.confidence, m.processed_at`

const (
	queryActiveByID = `SELECT ` + recordColumns + `
FROM images i
WHERE i.id = $1 AND i.status = 'active' AND NOT i.deleted`

	queryMetadataByID = `SELECT ` + metadataColumns + `
FROM image_metadata m
WHERE m.image_id = $1`

	queryRecent = `SELECT ` + recordColumns + `
FROM images i
ORDER BY i.created_at DESC, i.id
LIMIT $1`

	queryByScene = `SELECT ` + recordColumns + `, ` + metadataColumns + `
FROM images i
JOIN image_metadata m ON m.image_id = i.id
WHERE lower(m.scene) = lower($1)
ORDER BY i.created_at DESC, i.id
LIMIT $2`

	queryByDescription = `SELECT ` + recordColumns + `, ` + metadataColumns + `
FROM images i
JOIN image_metadata m ON m.image_id = i.id
WHERE m.ai_description ILIKE $1 ESCAPE '\'
   OR array_to_string(m.ai_tags, ',') ILIKE $1 ESCAPE '\'
ORDER BY m.confidence DESC, i.id
LIMIT $2`

	upsertImage = `INSERT INTO images (
	id, url, thumbnail_url, original_filename, description, tags,
	format, size_bytes, width, height, resolution, orientation, category,
	dominant_colors, has_transparency, is_animated, brightness, status, deleted, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
ON CONFLICT (id) DO UPDATE SET
	url = EXCLUDED.url,
	thumbnail_url = EXCLUDED.thumbnail_url,
	original_filename = EXCLUDED.original_filename,
	description = EXCLUDED.description,
	tags = EXCLUDED.tags,
	format = EXCLUDED.format,
	size_bytes = EXCLUDED.size_bytes,
	width = EXCLUDED.width,
	height = EXCLUDED.height,
	resolution = EXCLUDED.resolution,
	orientation = EXCLUDED.orientation,
	category = EXCLUDED.category,
	dominant_colors = EXCLUDED.dominant_colors,
	has_transparency = EXCLUDED.has_transparency,
	is_animated = EXCLUDED.is_animated,
	brightness = EXCLUDED.brightness,
	status = EXCLUDED.status,
	deleted = EXCLUDED.deleted,
	created_at = EXCLUDED.created_at`

	upsertMetadata = `INSERT INTO image_metadata (
	image_id, ai_description, ai_tags, scene, objects, palette, ocr_text, confidence, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (image_id) DO UPDATE SET
	ai_description = EXCLUDED.ai_description,
	ai_tags = EXCLUDED.ai_tags,
	scene = EXCLUDED.scene,
	objects = EXCLUDED.objects,
	palette = EXCLUDED.palette,
	ocr_text = EXCLUDED.ocr_text,
	confidence = EXCLUDED.confidence,
	processed_at = EXCLUDED.processed_at`

	deleteImage = `DELETE FROM images WHERE id = $1`
)
