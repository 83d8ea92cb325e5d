package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/cadence/pkg/routes"
)

func TestRegister(t *testing.T) {
	var hit string
	handler := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			hit = name + ":" + r.PathValue("id")
		}
	}

	mux := http.NewServeMux()
	routes.Register(mux,
		routes.Group{
			Prefix: "/gradings",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: handler("list")},
				{Method: "GET", Pattern: "/{id}", Handler: handler("find")},
				{Method: "DELETE", Pattern: "/{id}", Handler: handler("delete")},
			},
		},
	)

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/gradings", "list:"},
		{"GET", "/gradings/42", "find:42"},
		{"DELETE", "/gradings/42", "delete:42"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			hit = ""
			mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))
			if hit != tt.want {
				t.Errorf("handler: got %q, want %q", hit, tt.want)
			}
		})
	}
}

func TestPatterns(t *testing.T) {
	g := routes.Group{
		Prefix: "/rubrics",
		Routes: []routes.Route{{Method: "GET", Pattern: "/{id}"}},
	}

	got := g.Patterns()
	if len(got) != 1 || got[0] != "GET /rubrics/{id}" {
		t.Errorf("Patterns: got %v", got)
	}
}
