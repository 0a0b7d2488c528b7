package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSpecIsRegisteredAndValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}
	var spec struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &spec); err != nil {
		t.Fatalf("spec is not JSON: %v", err)
	}
	if spec.Info.Title != "hidream API" {
		t.Fatalf("title=%q", spec.Info.Title)
	}
	for _, p := range []string{"/v1/generate", "/v1/models", "/v1/model", "/status"} {
		if _, ok := spec.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
}
