package web

import (
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/Zachkp/folio/internal/markdown"
)

// Funcs returns the helpers available in every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":    markdown.Render,
		"excerpt":     markdown.Excerpt,
		"readingTime": markdown.ReadingTime,
		"date":        formatDate,
		"datetime":    formatDateTime,
		"year":        func() int { return time.Now().Year() },
		"add":         func(a, b int) int { return a + b },
		"join":        strings.Join,
		"inLine":      func(line []int, i int) bool { return slices.Contains(line, i) },
		"seq":         seq,
		"percent": func(part, total int64) int64 {
			if total == 0 {
				return 0
			}
			return part * 100 / total
		},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// seq returns 0..n-1.
func seq(n int) []int {
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out
}
