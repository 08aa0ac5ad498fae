package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidFile(t *testing.T) {
	path := writeSeedFile(t, `{
		"title": "SQL & Python for DE",
		"description": "Warehouse fundamentals",
		"questions": [
			{"prompt": "Pick one", "options": ["a", "b"], "correct_index": 1, "topic": "sql", "difficulty": 2},
			{"prompt": "Pick another", "options": ["x", "y", "z"], "correct_index": 0}
		]
	}`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Title != "SQL & Python for DE" || len(f.Questions) != 2 {
		t.Fatalf("unexpected file: %+v", f)
	}
	if f.Questions[0].CorrectIndex != 1 || f.Questions[0].Topic != "sql" {
		t.Fatalf("unexpected first question: %+v", f.Questions[0])
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"missing title":    `{"questions": [{"prompt": "p", "options": ["a", "b"], "correct_index": 0}]}`,
		"no questions":     `{"title": "t", "questions": []}`,
		"missing prompt":   `{"title": "t", "questions": [{"options": ["a", "b"], "correct_index": 0}]}`,
		"single option":    `{"title": "t", "questions": [{"prompt": "p", "options": ["a"], "correct_index": 0}]}`,
		"key out of range": `{"title": "t", "questions": [{"prompt": "p", "options": ["a", "b"], "correct_index": 2}]}`,
		"negative key":     `{"title": "t", "questions": [{"prompt": "p", "options": ["a", "b"], "correct_index": -1}]}`,
		"not json":         `not json`,
	}
	for name, content := range cases {
		path := writeSeedFile(t, content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}
