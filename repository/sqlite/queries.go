package sqlite

const (
	upsertQuery = `
        INSERT INTO transcriptions (cache_key, source, model, payload, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(cache_key) DO UPDATE SET
            source = excluded.source,
            model = excluded.model,
            payload = excluded.payload,
            created_at = excluded.created_at
    `

	findQuery = `
        SELECT payload FROM transcriptions WHERE cache_key = ?
    `
)
