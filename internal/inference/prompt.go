package inference

import (
	"fmt"
	"strings"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
)

const (
	menuAccuracyRule = "ACCURACY RULE: This is a menu (text), so you CANNOT see the food. " +
		"Infer 'spiceLevel', 'allergens' and 'tags' solely from your CULINARY KNOWLEDGE of the dish name. " +
		"Do not guess visual features. When a dish sits under a menu section header " +
		"(for example a 'Noodles' heading above 'Beef'), infer the dish's full name from that header."

	dishAccuracyRule = "ACCURACY RULE: Infer 'spiceLevel' and 'allergens' from VISUAL INSPECTION of the food."
)

// Prompt builds the instruction text for a scan.
func Prompt(scanType dish.ScanType, lang dish.Language) string {
	rule := dishAccuracyRule
	subject := "food photo"
	if scanType == dish.ScanTypeMenu {
		rule = menuAccuracyRule
		subject = "menu image"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s.\n", subject)
	b.WriteString("Identify all distinct dishes.\n")
	fmt.Fprintf(&b, "Translate details to %s.\n\n", lang)
	b.WriteString("IMPORTANT: Return PURE JSON adhering to the schema.\n")
	b.WriteString("- 'originalName': the exact text as it appears in the image (e.g. \"宫保鸡丁\").\n")
	b.WriteString("- 'englishName': the dish name in English, used for image search.\n")
	fmt.Fprintf(&b, "- 'description': brief ingredients and taste profile in %s.\n", lang)
	b.WriteString("- 'spiceLevel': one of 'None', 'Mild', 'Medium', 'Hot'.\n")
	b.WriteString("- 'category': e.g. 'Appetizer', 'Main', 'Dessert'.\n")
	b.WriteString("- 'tags': up to 3 dominant flavor words, most dominant first.\n")
	b.WriteString("- 'allergens': 1 to 5 potential allergens.\n")
	b.WriteString("- 'boundingBox': [0,0,0,0] (placeholder, location comes from OCR).\n\n")
	b.WriteString(rule)
	return b.String()
}

// ResponseSchema returns the strict response schema in the service's
// OpenAPI subset. Every dish field is required.
func ResponseSchema(lang dish.Language) map[string]interface{} {
	spice := make([]string, 0, len(dish.SpiceLevels))
	for _, s := range dish.SpiceLevels {
		spice = append(spice, string(s))
	}

	str := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "STRING", "description": desc}
	}
	strList := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "ARRAY",
			"items":       map[string]interface{}{"type": "STRING"},
			"description": desc,
		}
	}

	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"isMenu": map[string]interface{}{
				"type":        "BOOLEAN",
				"description": "True if the image is a menu (text list), false if it is a photo of real food.",
			},
			"dishes": map[string]interface{}{
				"type": "ARRAY",
				"items": map[string]interface{}{
					"type": "OBJECT",
					"properties": map[string]interface{}{
						"name":         str(fmt.Sprintf("Name of the dish translated to %s", lang)),
						"originalName": str("Original name of the dish in its native language, exactly as shown"),
						"englishName":  str("Name of the dish in English (for image search purposes)"),
						"description":  str(fmt.Sprintf("Description of ingredients and taste profile in %s", lang)),
						"tags":         strList(fmt.Sprintf("Top 3 dominant flavor profile words (e.g. Sweet, Salty, Umami) in %s", lang)),
						"allergens":    strList(fmt.Sprintf("List 1 to 5 potential allergens (e.g. Peanuts, Gluten, Dairy, Shellfish) in %s", lang)),
						"spiceLevel": map[string]interface{}{
							"type":        "STRING",
							"enum":        spice,
							"description": "None=not spicy, Mild=1 chili, Medium=2 chilies, Hot=3 chilies",
						},
						"category": str("Broad category like Soup, Main, Dessert"),
						"boundingBox": map[string]interface{}{
							"type":        "ARRAY",
							"items":       map[string]interface{}{"type": "NUMBER"},
							"description": "Bounding box of the dish [ymin, xmin, ymax, xmax] in 0-1000 scale.",
						},
					},
					"required": DishFields,
				},
			},
		},
		"required": []string{"isMenu", "dishes"},
	}
}

// DishFields lists the required properties of every dish record.
var DishFields = []string{
	"name", "originalName", "englishName", "description", "tags",
	"allergens", "spiceLevel", "category", "boundingBox",
}
