package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    token TEXT NOT NULL UNIQUE,
    is_staff INTEGER NOT NULL DEFAULT 0,
    tier TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tiers (
    name TEXT PRIMARY KEY,
    allow_original_link INTEGER NOT NULL DEFAULT 0,
    allow_expiring_link INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tier_sizes (
    tier_name TEXT NOT NULL REFERENCES tiers(name) ON DELETE CASCADE,
    dimension INTEGER NOT NULL,
    PRIMARY KEY (tier_name, dimension)
);

CREATE TABLE IF NOT EXISTS thumbnail_sizes (
    dimension INTEGER PRIMARY KEY CHECK (dimension > 0)
);

CREATE TABLE IF NOT EXISTS images (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    filename TEXT NOT NULL DEFAULT '',
    storage_path TEXT NOT NULL,
    expiry_seconds INTEGER NOT NULL DEFAULT 300,
    expiring_link TEXT NOT NULL DEFAULT '',
    uploaded DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS thumbnails (
    image_id TEXT NOT NULL REFERENCES images(id) ON DELETE CASCADE,
    dimension INTEGER NOT NULL,
    storage_path TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (image_id, dimension)
);

CREATE INDEX IF NOT EXISTS idx_images_user ON images (user_id, uploaded);
`
