package lookin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/lookinops/lookin-platform/pkg/config"
)

// ErrTransient marks recoverable transport failures (timeouts, connection
// resets) from the hub. The firmware is known to restart under IR load, so
// callers poll through these instead of aborting.
var ErrTransient = errors.New("transient hub failure")

// Client talks to a single LOOKin Remote hub over its HTTP API.
// The hub firmware is unstable under concurrent load, so a Client must be
// used serially: one outstanding request at a time.
type Client struct {
	address     string
	readClient  *http.Client
	writeClient *http.Client
	logger      *slog.Logger
}

// NewClient creates a hub client for the configured hub address
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		address: cfg.HubAddress,
		// Sensor reads can stall for a long time while the firmware buffers
		// IR data; writes that take that long have already failed.
		readClient:  &http.Client{Timeout: cfg.HubReadTimeout()},
		writeClient: &http.Client{Timeout: cfg.HubWriteTimeout()},
		logger:      logger,
	}
}

// Address returns the hub's network address
func (c *Client) Address() string {
	return c.address
}

// IsTransient reports whether err is a recoverable transport failure
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := url.URL{
		Scheme:   "http",
		Host:     c.address,
		Path:     path,
		RawQuery: query.Encode(),
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.buildURL(path, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	resp, err := c.readClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %w", path, ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body for %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, nil), reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.writeClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransient, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return nil
}

// Device returns the hub's device information
func (c *Client) Device(ctx context.Context) (*DeviceInfo, error) {
	var info DeviceInfo
	if err := c.get(ctx, "device", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetDevice updates mutable device settings. The hub applies these
// asynchronously; it can take a few seconds for Device to reflect them.
func (c *Client) SetDevice(ctx context.Context, settings DeviceSettings) error {
	return c.send(ctx, http.MethodPost, "device", settings)
}

// Network returns the hub's network information
func (c *Client) Network(ctx context.Context) (*NetworkInfo, error) {
	var info NetworkInfo
	if err := c.get(ctx, "network", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ScannedSSIDs returns the SSIDs the hub saw on its last boot
func (c *Client) ScannedSSIDs(ctx context.Context) ([]string, error) {
	var ssids []string
	if err := c.get(ctx, "network/scannedssidlist", nil, &ssids); err != nil {
		return nil, err
	}
	return ssids, nil
}

// SavedSSIDs returns the hub's stored WiFi networks
func (c *Client) SavedSSIDs(ctx context.Context) ([]string, error) {
	var ssids []string
	if err := c.get(ctx, "network/SavedSSID", nil, &ssids); err != nil {
		return nil, err
	}
	return ssids, nil
}

// AddNetwork stores a WiFi network on the hub
func (c *Client) AddNetwork(ctx context.Context, ssid, password string) error {
	return c.send(ctx, http.MethodPost, "network", map[string]string{
		"WiFiSSID":     ssid,
		"WiFiPassword": password,
	})
}

// DeleteNetwork removes a stored WiFi network from the hub
func (c *Client) DeleteNetwork(ctx context.Context, ssid string) error {
	return c.send(ctx, http.MethodDelete, "network/savedssid/"+url.PathEscape(ssid), nil)
}

// ConnectNetwork tells the hub to connect to ssid, or to the strongest
// available network when ssid is empty
func (c *Client) ConnectNetwork(ctx context.Context, ssid string) error {
	query := url.Values{}
	if ssid != "" {
		query.Set("ssid", ssid)
	}
	return c.get(ctx, "network/connect", query, nil)
}

// KeepWiFi tells the hub to hold its WiFi connection in sensor mode
func (c *Client) KeepWiFi(ctx context.Context) error {
	return c.get(ctx, "network/keepwifi", nil, nil)
}

// RemoteControlStop puts the hub's RemoteControl state to "stop"
func (c *Client) RemoteControlStop(ctx context.Context) error {
	return c.get(ctx, "network/remotecontrol/stop", nil, nil)
}

// RemoteControlReconnect puts the hub's RemoteControl state to "reconnect"
func (c *Client) RemoteControlReconnect(ctx context.Context) error {
	return c.get(ctx, "network/remotecontrol/reconnect", nil, nil)
}

// SensorNames returns the hub's available sensors
func (c *Client) SensorNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.get(ctx, "sensors", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// IRSensor reads the IR sensor once. An empty Raw field means the sensor
// is idle; callers decide whether that is noteworthy.
func (c *Client) IRSensor(ctx context.Context) (*IRReading, error) {
	var reading IRReading
	if err := c.get(ctx, "sensors/IR", nil, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// MeteoSensor reads the Meteo sensor once
func (c *Client) MeteoSensor(ctx context.Context) (*MeteoReading, error) {
	var reading MeteoReading
	if err := c.get(ctx, "sensors/Meteo", nil, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// Commands returns the hub's available command classes
func (c *Client) Commands(ctx context.Context) ([]string, error) {
	var commands []string
	if err := c.get(ctx, "commands", nil, &commands); err != nil {
		return nil, err
	}
	return commands, nil
}

// CommandEvents returns the available events for a command class
func (c *Client) CommandEvents(ctx context.Context, command string) ([]string, error) {
	var events []string
	if err := c.get(ctx, "commands/"+url.PathEscape(command), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Remotes returns the hub's saved IR remotes
func (c *Client) Remotes(ctx context.Context) ([]RemoteEntry, error) {
	var entries []RemoteEntry
	if err := c.get(ctx, "data", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Remote returns a saved IR remote's full record
func (c *Client) Remote(ctx context.Context, uuid string) (*RemoteDetail, error) {
	var detail RemoteDetail
	if err := c.get(ctx, "data/"+url.PathEscape(uuid), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateRemote creates a new IR remote definition on the hub
func (c *Client) CreateRemote(ctx context.Context, uuid, name, remoteType, extra string) error {
	return c.send(ctx, http.MethodPost, "data", map[string]string{
		"UUID":    uuid,
		"Name":    name,
		"Type":    remoteType,
		"Extra":   extra,
		"Updated": fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// UpdateRemote updates an IR remote definition on the hub
func (c *Client) UpdateRemote(ctx context.Context, uuid, name, remoteType, extra string) error {
	return c.send(ctx, http.MethodPut, "data/"+url.PathEscape(uuid), map[string]string{
		"Name":    name,
		"Type":    remoteType,
		"Extra":   extra,
		"Updated": fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// DeleteRemote removes a saved IR remote from the hub
func (c *Client) DeleteRemote(ctx context.Context, uuid string) error {
	return c.send(ctx, http.MethodDelete, "data/"+url.PathEscape(uuid), nil)
}

// Function returns a remote function's record
func (c *Client) Function(ctx context.Context, uuid, name string) (*FunctionDetail, error) {
	var detail FunctionDetail
	path := "data/" + url.PathEscape(uuid) + "/" + url.PathEscape(name)
	if err := c.get(ctx, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateFunction creates a function on a saved remote
func (c *Client) CreateFunction(ctx context.Context, uuid, name, functionType string, signals []FunctionSignal) error {
	path := "data/" + url.PathEscape(uuid) + "/" + url.PathEscape(name)
	return c.send(ctx, http.MethodPost, path, map[string]interface{}{
		"type":    functionType,
		"signals": signals,
	})
}

// UpdateFunction updates (or upserts) a function on a saved remote
func (c *Client) UpdateFunction(ctx context.Context, uuid, name, functionType string, signals []FunctionSignal) error {
	path := "data/" + url.PathEscape(uuid) + "/" + url.PathEscape(name)
	return c.send(ctx, http.MethodPut, path, map[string]interface{}{
		"type":    functionType,
		"signals": signals,
		"updated": fmt.Sprintf("%d", time.Now().Unix()),
	})
}

// DeleteFunction removes a function from a saved remote
func (c *Client) DeleteFunction(ctx context.Context, uuid, name string) error {
	return c.send(ctx, http.MethodDelete, "data/"+url.PathEscape(uuid)+"/"+url.PathEscape(name), nil)
}
