package source

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCompile_Empty(t *testing.T) {
	if got := Compile(nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
	if got := Compile([]Document{}); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

func TestCompile_CompanySiteOnly(t *testing.T) {
	got := Compile([]Document{{
		Title:    "https://acme.example",
		URL:      "https://acme.example",
		Category: CategoryCompanySite,
		Content:  "Acme builds widgets.",
	}})

	want := "Source: Company website\nURL: https://acme.example\nContent: Acme builds widgets.\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if strings.Count(got, "Source:") != 1 {
		t.Errorf("expected exactly one block")
	}
	if strings.Contains(got, Delimiter) {
		t.Errorf("a single block must not carry a delimiter")
	}
}

func TestCompile_PreservesOrder(t *testing.T) {
	docs := []Document{
		{URL: "https://a.example", Category: CategoryCompanySite, Content: "a"},
		{URL: "https://b.example", Category: CategoryPressRelease, Content: "b"},
		{URL: "https://c.example", Category: CategoryEmployeeReviews, Content: "c"},
		{URL: "https://d.example", Category: CategoryCompanyReport, Content: "d"},
	}

	got := Compile(docs)
	blocks := strings.Split(got, Delimiter)
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}
	for i, d := range docs {
		if !strings.HasPrefix(blocks[i], "Source: "+d.Category.String()+"\nURL: "+d.URL) {
			t.Errorf("block %d out of order: %q", i, blocks[i])
		}
	}
}

func TestCategory(t *testing.T) {
	labels := map[Category]string{
		CategoryCompanySite:     "Company website",
		CategoryPressRelease:    "Press release",
		CategoryEmployeeReviews: "Glassdoor",
		CategoryCompanyReport:   "Company report",
	}

	if len(Categories()) != len(labels) {
		t.Fatalf("expected %d categories, got %d", len(labels), len(Categories()))
	}
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("expected %v to be valid", c)
		}
		if c.String() != labels[c] {
			t.Errorf("expected label %q, got %q", labels[c], c.String())
		}
	}

	if Category(0).Valid() || Category(99).Valid() {
		t.Errorf("expected out-of-range categories to be invalid")
	}
}

func TestDocument_JSON(t *testing.T) {
	data, err := json.Marshal(Document{URL: "u", Category: CategoryCompanyReport})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"category":"Company report"`) {
		t.Errorf("expected category label in JSON, got %s", data)
	}

	if _, err := json.Marshal(Document{Category: Category(42)}); err == nil {
		t.Errorf("expected invalid category to fail marshaling")
	}
}
