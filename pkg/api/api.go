// Package api exposes the engine over HTTP for browser renderers.
//
// The surface is read-mostly JSON:
//
//	GET  /api/healthz   liveness plus last-cycle metadata
//	GET  /api/graph     nodes, links, and the buffer generation
//	GET  /api/styles    per-node and per-link visual attributes
//	GET  /api/paths     directed paths between two nodes
//	POST /api/refresh   trigger a refresh cycle
//
// Errors are returned as {"error": {"code", "message"}} with the
// structured codes from pkg/errors, so clients can branch on code rather
// than status text.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/meshview/meshview/pkg/engine"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh/path"
)

// Server wires the engine into an HTTP handler.
type Server struct {
	engine  *engine.Engine
	maxHops int
	logger  *log.Logger
}

// NewServer creates the API server. maxHops is the default hop budget for
// path queries; requests may narrow it with the hops query parameter.
func NewServer(eng *engine.Engine, maxHops int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{engine: eng, maxHops: maxHops, logger: logger}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.handleHealthz)
		r.Get("/graph", s.handleGraph)
		r.Get("/styles", s.handleStyles)
		r.Get("/paths", s.handlePaths)
		r.Post("/refresh", s.handleRefresh)
	})
	return r
}

// JSON shapes. The internal records carry no JSON tags on purpose; the API
// owns its wire format.

type positionJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type nodeJSON struct {
	ID        string        `json:"id"`
	Number    uint32        `json:"number,omitempty"`
	ShortName string        `json:"short_name,omitempty"`
	LongName  string        `json:"long_name,omitempty"`
	Role      string        `json:"role,omitempty"`
	Kind      string        `json:"kind"`
	Virtual   bool          `json:"virtual,omitempty"`
	Position  *positionJSON `json:"position,omitempty"`
	FirstSeen time.Time     `json:"first_seen"`
	LastSeen  time.Time     `json:"last_seen"`
	Version   uint64        `json:"version"`
}

type linkJSON struct {
	From         string    `json:"from"`
	To           string    `json:"to"`
	RSSI         int32     `json:"rssi"`
	SNR          float64   `json:"snr"`
	Hops         int       `json:"hops"`
	Class        string    `json:"class"`
	Virtual      bool      `json:"virtual,omitempty"`
	NoSignalData bool      `json:"no_signal_data,omitempty"`
	LastSeen     time.Time `json:"last_seen"`
	Version      uint64    `json:"version"`
}

type graphResponse struct {
	Generation uint64     `json:"generation"`
	Nodes      []nodeJSON `json:"nodes"`
	Links      []linkJSON `json:"links"`
}

type nodeStyleJSON struct {
	Color string `json:"color"`
}

type linkStyleJSON struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Dash  string  `json:"dash,omitempty"`
	Curve float64 `json:"curve,omitempty"`
	Label string  `json:"label,omitempty"`
}

type stylesResponse struct {
	Generation uint64                   `json:"generation"`
	Selection  []string                 `json:"selection"`
	Nodes      map[string]nodeStyleJSON `json:"nodes"`
	Links      []linkStyleJSON          `json:"links"`
}

type pathsResponse struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Hops  int         `json:"max_hops"`
	Paths [][]string  `json:"paths"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	last := s.engine.Last()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.engine.Buffer().Generation(),
		"last_cycle": last.CycleID,
		"nodes":      s.engine.Buffer().NodeCount(),
		"links":      s.engine.Buffer().LinkCount(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	b := s.engine.Buffer()
	resp := graphResponse{
		Generation: b.Generation(),
		Nodes:      make([]nodeJSON, 0, b.NodeCount()),
		Links:      make([]linkJSON, 0, b.LinkCount()),
	}
	for _, n := range b.Nodes() {
		nj := nodeJSON{
			ID:        n.ID,
			Number:    n.Number,
			ShortName: n.ShortName,
			LongName:  n.LongName,
			Role:      n.Role,
			Kind:      n.Kind.String(),
			Virtual:   n.Virtual,
			FirstSeen: n.FirstSeen,
			LastSeen:  n.LastSeen,
			Version:   n.Version,
		}
		if n.Position != nil {
			nj.Position = &positionJSON{Lat: n.Position.Latitude, Lon: n.Position.Longitude}
		}
		resp.Nodes = append(resp.Nodes, nj)
	}
	for _, l := range b.Links() {
		resp.Links = append(resp.Links, linkJSON{
			From:         l.From,
			To:           l.To,
			RSSI:         l.RSSI,
			SNR:          l.SNR,
			Hops:         l.Hops,
			Class:        l.Class.String(),
			Virtual:      b.Virtual().Contains(l.Key()),
			NoSignalData: l.NoSignalData,
			LastSeen:     l.LastSeen,
			Version:      l.Version,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	b := s.engine.Buffer()
	eng := s.engine.Style()
	sel := s.engine.Selection()

	selected := make([]string, 0, 2)
	if sel.First != "" {
		selected = append(selected, sel.First)
	}
	if sel.Second != "" {
		selected = append(selected, sel.Second)
	}

	resp := stylesResponse{
		Generation: b.Generation(),
		Selection:  selected,
		Nodes:      make(map[string]nodeStyleJSON, b.NodeCount()),
		Links:      make([]linkStyleJSON, 0, b.LinkCount()),
	}
	for _, n := range b.Nodes() {
		resp.Nodes[n.ID] = nodeStyleJSON{Color: eng.NodeColor(n.ID)}
	}
	for _, l := range b.Links() {
		k := l.Key()
		resp.Links = append(resp.Links, linkStyleJSON{
			From:  k.From,
			To:    k.To,
			Color: eng.LinkColor(k),
			Width: eng.LinkWidth(k),
			Dash:  eng.LinkDash(k),
			Curve: eng.LinkCurve(k),
			Label: eng.LinkLabel(k),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidSelection, "from and to are required"))
		return
	}

	b := s.engine.Buffer()
	if b.Node(from) == nil {
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "unknown node: %s", from))
		return
	}
	if b.Node(to) == nil {
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "unknown node: %s", to))
		return
	}

	hops := s.maxHops
	if q := r.URL.Query().Get("hops"); q != "" {
		h, err := strconv.Atoi(q)
		if err != nil || h < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid hops: %s", q))
			return
		}
		// The query can narrow the configured budget, never widen it.
		if h < hops {
			hops = h
		}
	}

	found := path.FindPaths(from, to, b.Links(), hops, path.Transparents(b.Nodes()))
	resp := pathsResponse{From: from, To: to, Hops: hops, Paths: make([][]string, 0, len(found))}
	for _, p := range found {
		resp.Paths = append(resp.Paths, []string(p))
	}
	// An empty result is a normal outcome, not an error.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Refresh(r.Context())
	if err != nil {
		if err != engine.ErrRefreshInFlight {
			s.logger.Warn("refresh via API failed", "err", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":   res.CycleID,
		"generation": res.Generation,
		"nodes":      res.Nodes,
		"links":      res.Links,
		"stats":      res.Stats,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch {
	case err == engine.ErrRefreshInFlight:
		status = http.StatusConflict
		code = "REFRESH_IN_FLIGHT"
	case code == errors.ErrCodeNodeNotFound || code == errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case code == errors.ErrCodeInvalidSelection || code == errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case code == errors.ErrCodeUnauthorized:
		status = http.StatusBadGateway // upstream rejected our credentials
	case errors.IsFetchFailure(err):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: string(code), Message: errors.UserMessage(err)},
	})
}
