package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wisatamap/internal/backend"
	"wisatamap/internal/poi"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, backend.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var r backend.Result
	_ = json.Unmarshal(w.Body.Bytes(), &r)
	return w, r
}

func TestNewDropsDuplicates(t *testing.T) {
	a := poi.NewPoint(poi.Attributes{Name: "A", Category: "x"}, orb.Point{1, 1})
	b := poi.NewPoint(poi.Attributes{Name: "A", Category: "y"}, orb.Point{2, 2})
	s := New([]*poi.Feature{a, b})
	if s.Count() != 1 || s.Features()[0].Category != "x" {
		t.Errorf("features = %+v", s.Features())
	}
}

func TestGetFeatures(t *testing.T) {
	s := New(Sample())
	w, _ := do(t, s.Router(), http.MethodGet, backend.PathFeatures, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	features, err := poi.DecodeCollection(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != len(Sample()) {
		t.Errorf("got %d features", len(features))
	}
}

func TestAddPointValidation(t *testing.T) {
	s := New(nil)
	r := s.Router()

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing name", `{"latitude":1,"longitude":2,"jenis_obje":"Pantai"}`, http.StatusBadRequest, "nama_objek is required"},
		{"missing category", `{"latitude":1,"longitude":2,"nama_objek":"A"}`, http.StatusBadRequest, "jenis_obje is required"},
		{"blank name", `{"latitude":1,"longitude":2,"nama_objek":"  ","jenis_obje":"Pantai"}`, http.StatusBadRequest, "nama_objek is required"},
		{"malformed", `{"latitude":`, http.StatusBadRequest, "invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := do(t, r, http.MethodPost, backend.PathAddPoint, tt.body)
			if w.Code != tt.status || res.Success || !strings.HasPrefix(res.Error, tt.message) {
				t.Errorf("got %d %+v", w.Code, res)
			}
		})
	}
	if s.Count() != 0 {
		t.Errorf("rejected requests stored %d features", s.Count())
	}
}

func TestAddPolygonTooFewVertices(t *testing.T) {
	s := New(nil)
	body := `{"polygon":[[[0,0],[1,0],[0,0]]],"centroid":[0.5,0],"nama_objek":"A","jenis_obje":"Taman"}`
	w, res := do(t, s.Router(), http.MethodPost, backend.PathAddArea, body)
	if w.Code != http.StatusBadRequest || res.Success {
		t.Errorf("got %d %+v", w.Code, res)
	}
}

func TestEditGeometryAndConflicts(t *testing.T) {
	s := New(Sample())
	r := s.Router()

	body := `{"nama_objek":"Tugu Adipura",
		"newProperties":{"nama_objek":"Tugu Adipura","jenis_obje":"Monumen"},
		"newGeometry":{"type":"Point","coordinates":[105.3,-5.4]}}`
	if w, res := do(t, r, http.MethodPost, backend.PathEdit, body); !res.Success {
		t.Fatalf("edit failed: %d %+v", w.Code, res)
	}
	if got := s.Features()[0].Location; got != (orb.Point{105.3, -5.4}) {
		t.Errorf("location = %v", got)
	}

	clash := `{"nama_objek":"Tugu Adipura","newProperties":{"nama_objek":"Taman Gajah","jenis_obje":"Taman"}}`
	if w, res := do(t, r, http.MethodPost, backend.PathEdit, clash); w.Code != http.StatusConflict || res.Error != MsgDuplicate {
		t.Errorf("rename clash: %d %+v", w.Code, res)
	}

	missing := `{"nama_objek":"Nope","newProperties":{"nama_objek":"Nope","jenis_obje":"Taman"}}`
	if w, res := do(t, r, http.MethodPost, backend.PathEdit, missing); w.Code != http.StatusNotFound || res.Error != "not found" {
		t.Errorf("missing: %d %+v", w.Code, res)
	}
}

func TestDeleteKeepsOrder(t *testing.T) {
	s := New(Sample())
	if _, res := do(t, s.Router(), http.MethodPost, backend.PathDelete, `{"nama_objek":"Museum Lampung"}`); !res.Success {
		t.Fatalf("delete failed: %+v", res)
	}
	got := s.Features()
	if len(got) != len(Sample())-1 || got[0].Name != "Tugu Adipura" || got[1].Name != "Pantai Mutun" {
		t.Errorf("order after delete: %v, %v", got[0].Name, got[1].Name)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := New(nil)
	w, _ := do(t, s.Router(), http.MethodOptions, backend.PathAddPoint, "")
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", w.Code, w.Header())
	}
}

func TestLoadSeed(t *testing.T) {
	features, err := LoadSeed("")
	if err != nil || len(features) != len(Sample()) {
		t.Fatalf("empty path: %d, %v", len(features), err)
	}

	path := filepath.Join(t.TempDir(), "seed.geojson")
	data, _ := poi.EncodeCollection(features[:2])
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSeed(path)
	if err != nil || len(got) != 2 {
		t.Errorf("file seed: %d, %v", len(got), err)
	}

	if _, err := LoadSeed(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Error("missing seed loaded without error")
	}
}
