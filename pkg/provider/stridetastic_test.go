package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meshview/meshview/pkg/cache"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh/model"
)

const (
	nodesBody = `[
		{"id":11,"node_id":"!a1b2","node_number":433,"short_name":"GIPF","long_name":"Gipfel Relay","role":"ROUTER",
		 "is_virtual":false,"latitude":47.42,"longitude":9.37,
		 "first_seen":"2026-08-01T10:00:00Z","last_seen":"2026-08-02T10:00:00Z"},
		{"id":12,"node_id":"!c3d4","node_number":77,"short_name":"TAL","long_name":"Tal Client","role":"CLIENT",
		 "is_virtual":true,"latitude":null,"longitude":null,
		 "first_seen":"2026-08-01T10:00:00Z","last_seen":"2026-08-02T09:00:00Z"}
	]`
	edgesBody = `[
		{"source_node_id":"!a1b2","target_node_id":"!c3d4",
		 "first_seen":"2026-08-01T10:00:00Z","last_seen":"2026-08-02T10:00:00Z",
		 "last_rx_rssi":-92,"last_rx_snr":3.25,"last_hops":0,"interfaces_names":["LoRa Serial"]},
		{"source_node_id":"!c3d4","target_node_id":"!a1b2",
		 "first_seen":"2026-08-01T10:00:00Z","last_seen":"2026-08-02T10:00:00Z",
		 "last_rx_rssi":0,"last_rx_snr":0,"last_hops":0,"interfaces_names":["Broker Uplink"]}
	]`
	ifacesBody = `[
		{"id":1,"display_name":"LoRa Serial","name":"serial0","status":"running","is_enabled":true,
		 "mqtt_topic":null,"serial_node_id":11},
		{"id":2,"display_name":"Broker Uplink","name":"mqtt0","status":"running","is_enabled":true,
		 "mqtt_topic":"msh/EU_868","mqtt_base_topic":"msh"},
		{"id":3,"display_name":"Bench TCP","name":"tcp0","status":"stopped","is_enabled":false,
		 "mqtt_topic":null,"serial_node_id":99,"tcp_hostname":"bench.local","tcp_port":4403}
	]`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/nodes/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nodesBody))
	})
	mux.HandleFunc("/graph/edges", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(edgesBody))
	})
	mux.HandleFunc("/interfaces/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ifacesBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_MapsWireFormat(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	in, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(in.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(in.Nodes))
	}
	n := in.Nodes[0]
	if n.ID != "!a1b2" || n.Number != 433 || n.Role != "ROUTER" {
		t.Errorf("node mapping wrong: %+v", n)
	}
	if n.Position == nil || n.Position.Latitude != 47.42 {
		t.Errorf("position not mapped: %+v", n.Position)
	}
	if in.Nodes[1].Position != nil {
		t.Error("null coordinates must map to a nil position")
	}
	if !in.Nodes[1].Virtual {
		t.Error("is_virtual not mapped")
	}

	if len(in.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(in.Edges))
	}
	rf := in.Edges[0]
	if rf.Type != model.EdgeRadio || rf.RSSI != -92 || rf.SNR != 3.25 {
		t.Errorf("radio edge mapping wrong: %+v", rf)
	}
	if in.Edges[1].Type != model.EdgeMQTT {
		t.Error("edge over an MQTT interface must be tagged as bridge traffic")
	}

	if len(in.Interfaces) != 3 {
		t.Fatalf("got %d interfaces, want 3", len(in.Interfaces))
	}
	if in.Interfaces[0].SerialBoundNodeID != "!a1b2" {
		t.Errorf("serial binding not resolved to the node ID: %+v", in.Interfaces[0])
	}
	if in.Interfaces[2].SerialBoundNodeID != "" {
		t.Errorf("unknown serial node key must stay unbound: %+v", in.Interfaces[2])
	}
}

func TestFetch_SendsAuthAndWindow(t *testing.T) {
	var gotAuth, gotLast string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotLast = r.URL.Query().Get("last")
		w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		Token:      "tok123",
		Window:     "24h",
		HTTPClient: srv.Client(),
	})
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotLast != "24h" {
		t.Errorf("last = %q, want 24h", gotLast)
	}
}

func TestFetch_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errors.Code
	}{
		{"Unauthorized", http.StatusUnauthorized, errors.ErrCodeUnauthorized},
		{"Forbidden", http.StatusForbidden, errors.ErrCodeUnauthorized},
		{"NotFound", http.StatusNotFound, errors.ErrCodeFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "denied", tt.status)
			}))
			defer srv.Close()

			c, _ := NewClient(ClientConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
			_, err := c.Fetch(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("code = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFetch_ServesFromCacheDuringOutage(t *testing.T) {
	srv := newTestServer(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, _ := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Cache:      fc,
		CacheTTL:   time.Hour,
	})

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("warm fetch error: %v", err)
	}

	srv.Close() // backend outage

	in, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("cached fetch error: %v", err)
	}
	if len(in.Nodes) != 2 || len(in.Edges) != 2 {
		t.Errorf("cached fetch returned %d nodes / %d edges", len(in.Nodes), len(in.Edges))
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("got %v, want INVALID_CONFIG", err)
	}
}
