package provider

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/meshview/meshview/pkg/cache"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/httputil"
	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/model"
)

// ClientConfig configures a Stridetastic API client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://mesh.example.org/api".
	BaseURL string

	// Token is the bearer token. Empty disables the Authorization header.
	Token string

	// Window is the value of the "last" query parameter sent to the nodes
	// and edges endpoints, e.g. "24h". Empty fetches the full history.
	Window string

	// Timeout bounds one endpoint round trip. Zero means 15 seconds.
	Timeout time.Duration

	// HTTPClient overrides the transport. Nil uses http.DefaultClient.
	HTTPClient *http.Client

	// Cache stores raw responses. Nil disables caching.
	Cache cache.Cache

	// CacheTTL is the freshness window for cached responses.
	CacheTTL time.Duration
}

const defaultTimeout = 15 * time.Second

// Client is the Stridetastic API provider.
type Client struct {
	cfg   ClientConfig
	keyer cache.Keyer
}

// NewClient creates a provider for the Stridetastic API.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "provider base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid provider base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	return &Client{cfg: cfg, keyer: cache.NewDefaultKeyer()}, nil
}

// Source identifies the backend for cache keys and logs.
func (c *Client) Source() string { return c.cfg.BaseURL }

// Wire formats of the Stridetastic API.

type wireNode struct {
	ID         int      `json:"id"`
	NodeID     string   `json:"node_id"`
	NodeNumber uint32   `json:"node_number"`
	ShortName  string   `json:"short_name"`
	LongName   string   `json:"long_name"`
	Role       string   `json:"role"`
	IsVirtual  bool     `json:"is_virtual"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
}

type wireEdge struct {
	SourceNodeID    string    `json:"source_node_id"`
	TargetNodeID    string    `json:"target_node_id"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	LastRxRSSI      int32     `json:"last_rx_rssi"`
	LastRxSNR       float64   `json:"last_rx_snr"`
	LastHops        int       `json:"last_hops"`
	InterfacesNames []string  `json:"interfaces_names"`
}

type wireInterface struct {
	ID            int     `json:"id"`
	DisplayName   string  `json:"display_name"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	IsEnabled     bool    `json:"is_enabled"`
	MQTTTopic     *string `json:"mqtt_topic"`
	MQTTBaseTopic *string `json:"mqtt_base_topic"`
	SerialNodeID  *int    `json:"serial_node_id"`
	TCPHostname   *string `json:"tcp_hostname"`
	TCPPort       *int    `json:"tcp_port"`
}

// Fetch retrieves nodes, edges, and interfaces and maps them to the raw
// model input. Edges relayed over an MQTT interface are tagged as bridge
// traffic by intersecting their interface names with the MQTT-capable
// interfaces.
func (c *Client) Fetch(ctx context.Context) (model.Input, error) {
	var nodes []wireNode
	if err := c.getJSON(ctx, "nodes", "/nodes/", &nodes); err != nil {
		return model.Input{}, err
	}
	var edges []wireEdge
	if err := c.getJSON(ctx, "edges", "/graph/edges", &edges); err != nil {
		return model.Input{}, err
	}
	var ifaces []wireInterface
	if err := c.getJSON(ctx, "interfaces", "/interfaces/", &ifaces); err != nil {
		return model.Input{}, err
	}

	in := model.Input{Now: time.Now()}

	// Interfaces reference serial-bound nodes by database primary key.
	nodeByPK := make(map[int]string, len(nodes))

	for _, n := range nodes {
		nodeByPK[n.ID] = n.NodeID
		node := model.NodeInfo{
			ID:        n.NodeID,
			Number:    n.NodeNumber,
			ShortName: n.ShortName,
			LongName:  n.LongName,
			Role:      n.Role,
			FirstSeen: n.FirstSeen,
			LastSeen:  n.LastSeen,
			Virtual:   n.IsVirtual,
		}
		if n.Latitude != nil && n.Longitude != nil {
			node.Position = &mesh.GeoPos{Latitude: *n.Latitude, Longitude: *n.Longitude}
		}
		in.Nodes = append(in.Nodes, node)
	}

	mqttIfaces := make(map[string]bool)
	for _, i := range ifaces {
		info := model.InterfaceInfo{
			ID:          strconv.Itoa(i.ID),
			Name:        i.Name,
			DisplayName: i.DisplayName,
			Status:      i.Status,
		}
		if i.SerialNodeID != nil {
			info.SerialBoundNodeID = nodeByPK[*i.SerialNodeID]
		}
		if i.MQTTTopic != nil {
			mqttIfaces[i.DisplayName] = true
		}
		in.Interfaces = append(in.Interfaces, info)
	}

	for _, e := range edges {
		edge := model.EdgeInfo{
			From:     e.SourceNodeID,
			To:       e.TargetNodeID,
			RSSI:     e.LastRxRSSI,
			SNR:      e.LastRxSNR,
			Hops:     e.LastHops,
			LastSeen: e.LastSeen,
			Type:     model.EdgeRadio,
		}
		for _, name := range e.InterfacesNames {
			if mqttIfaces[name] {
				edge.Type = model.EdgeMQTT
				break
			}
		}
		in.Edges = append(in.Edges, edge)
	}

	return in, nil
}

// getJSON fetches one endpoint through the cache. Cache hits skip the
// network entirely; misses fetch with retry and refill the cache.
func (c *Client) getJSON(ctx context.Context, namespace, path string, v any) error {
	u := c.cfg.BaseURL + path
	if c.cfg.Window != "" {
		u += "?last=" + url.QueryEscape(c.cfg.Window)
	}
	key := c.keyer.HTTPKey(namespace, u)

	if data, hit, err := c.cfg.Cache.Get(ctx, key); err == nil && hit {
		return json.Unmarshal(data, v)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var raw json.RawMessage
	err := httputil.RetryWithBackoff(ctx, func() error {
		return httputil.GetJSON(ctx, c.cfg.HTTPClient, u, c.cfg.Token, &raw)
	})
	if err != nil {
		return c.fetchError(ctx, namespace, err)
	}

	// A cache write failure is not a fetch failure.
	_ = c.cfg.Cache.Set(ctx, key, raw, c.cfg.CacheTTL)

	return json.Unmarshal(raw, v)
}

// fetchError maps transport failures onto the structured fetch codes.
func (c *Client) fetchError(ctx context.Context, namespace string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeFetchTimeout, err, "fetch %s from %s", namespace, c.cfg.BaseURL)
	}
	var se *httputil.StatusError
	if stderrors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrap(errors.ErrCodeUnauthorized, err, "fetch %s from %s", namespace, c.cfg.BaseURL)
		}
	}
	return errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch %s from %s", namespace, c.cfg.BaseURL)
}

var _ Provider = (*Client)(nil)

func (c *Client) String() string {
	return fmt.Sprintf("stridetastic(%s)", c.cfg.BaseURL)
}
