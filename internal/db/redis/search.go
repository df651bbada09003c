package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/imgdex/internal/db"
)

// Search runs a text and tag query via FT.SEARCH.
func (s *Store) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(searchArgs(q)...).Build()
	raw, err := s.do(ctx, db.OpSearch, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseListResult(raw)
}

// searchArgs renders everything after FT.SEARCH. DIALECT 2 is pinned so
// tag and prefix syntax do not depend on the server default.
func searchArgs(q *db.Query) []string {
	args := []string{q.IndexName, buildQuery(q)}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	if q.SortBy != nil {
		order := "ASC"
		if q.SortBy.Descending {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy.Field, order)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit))
	return append(args, "DIALECT", "2")
}

// parseListResult decodes the [total, key1, fields1, key2, fields2, ...]
// reply. Malformed pairs are skipped, Total stays the server count.
func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	res := &db.SearchResult{Total: int(total)}
	if total == 0 {
		return res, nil
	}

	res.Entries = make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, kerr := raw[i].ToString()
		fields, ferr := raw[i+1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		res.Entries = append(res.Entries, db.SearchEntry{Key: key, Fields: parseFieldPairs(fields)})
	}
	return res, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, nerr := fields[j].ToString()
		value, verr := fields[j+1].ToString()
		if nerr != nil || verr != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// buildQuery renders the query string: text clause first, then tag clauses.
func buildQuery(q *db.Query) string {
	var b strings.Builder

	if text := strings.TrimSpace(q.Text); text != "" {
		if len(q.TextFields) > 0 {
			b.WriteByte('@')
			b.WriteString(strings.Join(q.TextFields, "|"))
			b.WriteByte(':')
		}
		b.WriteByte('(')
		b.WriteString(escape(text, textSpecial))
		b.WriteByte(')')
	}

	for _, t := range q.Tags {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "@%s:{%s}", t.Field, escape(t.Value, tagSpecial))
	}

	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

// Characters with query-syntax meaning. Spaces separate terms in free text
// but belong to the value inside a tag clause.
const (
	textSpecial = `\'"@{}()|-~*[]!%^$<>=;+:`
	tagSpecial  = `,.<>{}"':;!@#$%^&*()-+=~ \`
)

func escape(s, special string) string {
	if !strings.ContainsAny(s, special) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
