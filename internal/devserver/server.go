package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"wisatamap/internal/backend"
	"wisatamap/internal/debug"
	"wisatamap/internal/poi"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MsgDuplicate is the rejection message for a name already in use
const MsgDuplicate = "duplicate name"

// Server is an in-memory implementation of the tourism data API
type Server struct {
	log *slog.Logger

	mu       sync.RWMutex
	order    []string
	features map[string]*poi.Feature

	upgrader websocket.Upgrader
	subsMu   sync.Mutex
	subs     map[*websocket.Conn]struct{}
}

// New creates a server holding seed. Later duplicates in seed are dropped.
func New(seed []*poi.Feature) *Server {
	s := &Server{
		log:      debug.L(),
		features: make(map[string]*poi.Feature),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		subs:     make(map[*websocket.Conn]struct{}),
	}
	for _, f := range seed {
		if _, dup := s.features[f.Name]; dup {
			s.log.Warn("seed_duplicate", "name", f.Name)
			continue
		}
		s.features[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	return s
}

// Router returns the gin engine serving all endpoints
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for browser clients
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "features": s.Count()})
	})
	r.GET(backend.PathFeatures, s.getFeatures)
	r.POST(backend.PathAddPoint, s.addPoint)
	r.POST(backend.PathAddArea, s.addPolygon)
	r.POST(backend.PathEdit, s.editData)
	r.POST(backend.PathDelete, s.deleteData)
	r.GET(backend.PathChanges, s.changes)
	return r
}

// Count returns the number of stored features
func (s *Server) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Features returns the stored features in insertion order
func (s *Server) Features() []*poi.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*poi.Feature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.features[id])
	}
	return out
}

func (s *Server) getFeatures(c *gin.Context) {
	body, err := poi.EncodeCollection(s.Features())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func reject(c *gin.Context, status int, msg string) {
	c.JSON(status, backend.Result{Success: false, Error: msg})
}

func (s *Server) addPoint(c *gin.Context) {
	var req backend.AddPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if msg := validate(req.Properties); msg != "" {
		reject(c, http.StatusBadRequest, msg)
		return
	}

	f := poi.NewPoint(req.Attributes().Trimmed(), orb.Point{req.Longitude, req.Latitude})
	if err := s.insert(f); err != nil {
		reject(c, http.StatusConflict, err.Error())
		return
	}
	s.log.Info("feature_added", "name", f.Name, "kind", "point")
	c.JSON(http.StatusOK, backend.Result{Success: true})
	s.broadcast(backend.ChangeMessage{Type: backend.ChangeAdded, Name: f.Name})
}

func (s *Server) addPolygon(c *gin.Context) {
	var req backend.AddPolygonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if msg := validate(req.Properties); msg != "" {
		reject(c, http.StatusBadRequest, msg)
		return
	}
	ring := req.Ring()
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		reject(c, http.StatusBadRequest, "polygon needs at least 3 vertices")
		return
	}

	f := poi.NewArea(req.Attributes().Trimmed(), ring)
	f.Location = orb.Point{req.Centroid[0], req.Centroid[1]}
	if err := s.insert(f); err != nil {
		reject(c, http.StatusConflict, err.Error())
		return
	}
	s.log.Info("feature_added", "name", f.Name, "kind", "polygon", "vertices", len(ring))
	c.JSON(http.StatusOK, backend.Result{Success: true})
	s.broadcast(backend.ChangeMessage{Type: backend.ChangeAdded, Name: f.Name})
}

func (s *Server) editData(c *gin.Context) {
	var req backend.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if msg := validate(req.NewProperties); msg != "" {
		reject(c, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	old, ok := s.features[req.Name]
	if !ok {
		s.mu.Unlock()
		reject(c, http.StatusNotFound, "not found")
		return
	}
	newName := strings.TrimSpace(req.NewProperties.Name)
	if newName != req.Name {
		if _, clash := s.features[newName]; clash {
			s.mu.Unlock()
			reject(c, http.StatusConflict, MsgDuplicate)
			return
		}
	}

	next := old.Clone()
	next.SetAttributes(req.NewProperties.Attributes().Trimmed())
	if req.NewGeometry != nil {
		gf := geojson.NewFeature(req.NewGeometry.Geometry())
		gf.Properties[poi.PropName] = next.Name
		gf.Properties[poi.PropCategory] = next.Category
		gf.Properties[poi.PropAddress] = next.Address
		gf.Properties[poi.PropDescription] = next.Description
		parsed, err := poi.FromGeoJSON(gf)
		if err != nil {
			s.mu.Unlock()
			reject(c, http.StatusBadRequest, "invalid geometry: "+err.Error())
			return
		}
		next = parsed
	}

	delete(s.features, req.Name)
	s.features[next.Name] = next
	for i, id := range s.order {
		if id == req.Name {
			s.order[i] = next.Name
			break
		}
	}
	s.mu.Unlock()

	s.log.Info("feature_edited", "name", req.Name, "new_name", next.Name)
	c.JSON(http.StatusOK, backend.Result{Success: true})
	msg := backend.ChangeMessage{Type: backend.ChangeEdited, Name: req.Name}
	if next.Name != req.Name {
		msg.NewName = next.Name
	}
	s.broadcast(msg)
}

func (s *Server) deleteData(c *gin.Context) {
	var req backend.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	if _, ok := s.features[req.Name]; !ok {
		s.mu.Unlock()
		reject(c, http.StatusNotFound, "not found")
		return
	}
	delete(s.features, req.Name)
	for i, id := range s.order {
		if id == req.Name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.log.Info("feature_deleted", "name", req.Name)
	c.JSON(http.StatusOK, backend.Result{Success: true})
	s.broadcast(backend.ChangeMessage{Type: backend.ChangeDeleted, Name: req.Name})
}

var errDuplicate = errors.New(MsgDuplicate)

func (s *Server) insert(f *poi.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.features[f.Name]; dup {
		return errDuplicate
	}
	s.features[f.Name] = f
	s.order = append(s.order, f.Name)
	return nil
}

func validate(p backend.Properties) string {
	if strings.TrimSpace(p.Name) == "" {
		return "nama_objek is required"
	}
	if strings.TrimSpace(p.Category) == "" {
		return "jenis_obje is required"
	}
	return ""
}
