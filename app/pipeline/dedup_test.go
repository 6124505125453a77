package pipeline

import (
	"strings"
	"testing"

	"github.com/lysyi3m/newsflow/app/store"
)

func TestDedupKey(t *testing.T) {
	long := strings.Repeat("A", 60)
	if got := DedupKey(long); got != strings.Repeat("a", 50) {
		t.Errorf("Expected 50 lowercase characters, got %q", got)
	}
	if DedupKey("Héllo Wörld") != "héllo wörld" {
		t.Errorf("Expected unicode lowercase, got %q", DedupKey("Héllo Wörld"))
	}
}

func TestDeduplicate(t *testing.T) {
	prefix := strings.Repeat("x", 50)
	articles := []store.Article{
		{ID: "1", Title: "Breaking: Markets Rally", Source: "A"},
		{ID: "2", Title: "breaking: markets rally", Source: "B"},
		{ID: "3", Title: prefix + " first ending", Source: "A"},
		{ID: "4", Title: prefix + " second ending", Source: "B"},
		{ID: "5", Title: "Unrelated", Source: "B"},
	}

	unique := Deduplicate(articles)

	var ids []string
	for _, a := range unique {
		ids = append(ids, a.ID)
	}
	if strings.Join(ids, ",") != "1,3,5" {
		t.Errorf("Expected first occurrences 1,3,5, got %v", ids)
	}
}

func TestSortByPublished(t *testing.T) {
	articles := []store.Article{
		{ID: "empty", Published: ""},
		{ID: "old", Published: "2024-01-01T00:00:00Z"},
		{ID: "bad", Published: "someday"},
		{ID: "new", Published: "2024-02-01T00:00:00Z"},
		{ID: "old-tie", Published: "2024-01-01T00:00:00Z"},
		{ID: "offset", Published: "Wed, 10 Jan 2024 00:00:00 +0000"},
	}

	SortByPublished(articles)

	var ids []string
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	if strings.Join(ids, ",") != "new,offset,old,old-tie,empty,bad" {
		t.Errorf("Unexpected order: %v", ids)
	}
}
