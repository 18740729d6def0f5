package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the placeholder style and DDL of a database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// isValidIdentifier checks if a table prefix is safe for SQL interpolation.
// Must start with letter or underscore, followed by alphanumeric/underscore.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 && !letter {
			return false
		}
		if !letter && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// queries holds the statements of one Store, built once for its dialect and prefix.
type queries struct {
	schema      []string
	drop        []string
	lock        string // empty when the dialect serializes writers itself
	insert      string
	get         string
	maxID       string
	putEquality string
	getEquality string
	putKeyword  string
	getKeyword  string
}

func buildQueries(d Dialect, prefix string) queries {
	docs := prefix + "documents"
	postings := prefix + "keyword_postings"

	idType, seqType := "INTEGER PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d == Postgres {
		idType, seqType = "BIGINT PRIMARY KEY", "BIGSERIAL PRIMARY KEY"
	}

	q := queries{
		schema: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id %s,
	ciphertext TEXT NOT NULL,
	equality_token TEXT NOT NULL
)`, docs, idType),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_equality_token_idx ON %s (equality_token)`, docs, docs),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq %s,
	token TEXT NOT NULL,
	encrypted_doc_id TEXT NOT NULL
)`, postings, seqType),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_token_idx ON %s (token)`, postings, postings),
		},
		drop: []string{
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, postings),
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, docs),
		},
		insert:      fmt.Sprintf(`INSERT INTO %s (id, ciphertext, equality_token) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`, docs),
		get:         fmt.Sprintf(`SELECT ciphertext, equality_token FROM %s WHERE id = ?`, docs),
		maxID:       fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) FROM %s`, docs),
		putEquality: fmt.Sprintf(`UPDATE %s SET equality_token = ? WHERE id = ?`, docs),
		getEquality: fmt.Sprintf(`SELECT id FROM %s WHERE equality_token = ? ORDER BY id`, docs),
		putKeyword:  fmt.Sprintf(`INSERT INTO %s (token, encrypted_doc_id) VALUES (?, ?)`, postings),
		getKeyword:  fmt.Sprintf(`SELECT encrypted_doc_id FROM %s WHERE token = ? ORDER BY seq`, postings),
	}
	if d == Postgres {
		// Readers take ACCESS SHARE and are not blocked.
		q.lock = fmt.Sprintf(`LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE`, docs)
	}

	for _, s := range []*string{&q.insert, &q.get, &q.putEquality, &q.getEquality, &q.putKeyword, &q.getKeyword} {
		*s = rebind(d, *s)
	}
	return q
}
