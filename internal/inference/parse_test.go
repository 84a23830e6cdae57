package inference

import (
	"errors"
	"testing"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"isMenu":true}`, `{"isMenu":true}`},
		{"json fence", "```json\n{\"isMenu\":true}\n```", `{"isMenu":true}`},
		{"bare fence", "```\n{\"isMenu\":true}\n```", `{"isMenu":true}`},
		{"single line fence", "```json {\"isMenu\":true}```", `{"isMenu":true}`},
		{"fence without info on one line", "```{\"isMenu\":true}```", `{"isMenu":true}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n ", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.in); got != tt.want {
				t.Errorf("StripFence: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	text := "```json\n" + `{
		"isMenu": true,
		"dishes": [
			{"name": "Rollito", "originalName": "春卷", "englishName": "Spring Roll",
			 "description": "Crujiente", "tags": ["Salado"], "allergens": ["Gluten"],
			 "spiceLevel": "Mild", "category": "Appetizer", "boundingBox": [0,0,0,0], "price": "¥12"},
			{"name": "Arroz frito", "originalName": "炒饭", "englishName": "Fried Rice",
			 "description": "Arroz", "tags": ["Umami", "Salado"], "allergens": ["Huevo"],
			 "spiceLevel": "None", "category": "Main", "boundingBox": [10,20,30,40]}
		]
	}` + "\n```"

	resp, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !resp.IsMenu {
		t.Error("IsMenu should be true")
	}
	if len(resp.Dishes) != 2 {
		t.Fatalf("got %d dishes, want 2", len(resp.Dishes))
	}
	if resp.Dishes[0].OriginalName != "春卷" || resp.Dishes[1].OriginalName != "炒饭" {
		t.Errorf("dish order not preserved: %+v", resp.Dishes)
	}
	if resp.Dishes[0].SpiceLevel != dish.SpiceMild {
		t.Errorf("SpiceLevel: got %s", resp.Dishes[0].SpiceLevel)
	}
	if resp.Dishes[1].Tags[0] != "Umami" {
		t.Errorf("tag order not preserved: %v", resp.Dishes[1].Tags)
	}
	if resp.Dishes[1].BoundingBox != (dish.BoundingBox{10, 20, 30, 40}) {
		t.Errorf("BoundingBox: got %v", resp.Dishes[1].BoundingBox)
	}
}

func TestParse_Degrades(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"empty object", "{}"},
		{"no dishes key", `{"isMenu": false}`},
		{"null dishes", `{"isMenu": false, "dishes": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if resp.Dishes == nil || len(resp.Dishes) != 0 {
				t.Errorf("expected empty non-nil dish list, got %#v", resp.Dishes)
			}
		})
	}
}

func TestParse_NormalizesDish(t *testing.T) {
	resp, err := Parse(`{"dishes":[{"name":"Soup","spiceLevel":"Volcanic"}]}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := resp.Dishes[0]
	if d.OriginalName != "Soup" {
		t.Errorf("OriginalName should fall back to name, got %q", d.OriginalName)
	}
	if d.SpiceLevel != dish.SpiceNone {
		t.Errorf("unknown spice level should map to None, got %s", d.SpiceLevel)
	}
	if d.Tags == nil || d.Allergens == nil {
		t.Error("nil lists should become empty lists")
	}
}

// Only a name is required; other fields the schema asks for may be absent.
func TestParse_AcceptsPartialDish(t *testing.T) {
	resp, err := Parse(`{"isMenu":true,"dishes":[{"originalName":"麻婆豆腐"}]}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(resp.Dishes) != 1 {
		t.Fatalf("got %d dishes, want 1", len(resp.Dishes))
	}
	d := resp.Dishes[0]
	if d.OriginalName != "麻婆豆腐" || d.Name != "" {
		t.Errorf("names: got %q / %q", d.OriginalName, d.Name)
	}
	if d.Description != "" || d.Category != "" || d.EnglishName != "" {
		t.Errorf("missing fields should stay empty: %+v", d)
	}
	if d.SpiceLevel != dish.SpiceNone || !d.BoundingBox.IsZero() {
		t.Errorf("defaults: spice=%s box=%v", d.SpiceLevel, d.BoundingBox)
	}
	if len(d.Tags) != 0 || len(d.Allergens) != 0 || d.Tags == nil {
		t.Errorf("lists: tags=%v allergens=%v", d.Tags, d.Allergens)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"truncated", `{"isMenu": true, "dishes": [`},
		{"prose", "Sorry, I cannot help with that."},
		{"array", `[{"name":"x"}]`},
		{"null", `null`},
		{"wrong type", `{"isMenu": "yes"}`},
		{"trailing data", `{"isMenu": true} {"isMenu": false}`},
		{"nameless dish", `{"dishes":[{"description":"mystery"}]}`},
		{"fenced garbage", "```json\nnot json\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}
