package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eufy-security/eufy-go/pkg/device"
)

// DefaultBaseURL is the production API endpoint. A successful login may
// redirect the client to an account-specific regional domain.
const DefaultBaseURL = "https://mysecurity.eufylife.com/api/v1"

// defaultHTTPTimeout bounds requests when the caller supplies no client.
const defaultHTTPTimeout = 30 * time.Second

// errUnauthorized marks an HTTP 401 internally so the request path can
// run its refresh-once policy.
var errUnauthorized = errors.New("unauthorized")

// Config configures a Client.
type Config struct {
	// Email and Password are the account credentials.
	Email    string
	Password string

	// BaseURL overrides the API endpoint. Default: DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the HTTP client used for all requests.
	HTTPClient *http.Client

	// SessionOptions are handed to every Station the inventory builds.
	SessionOptions device.SessionOptions

	// Logger receives operational debug logging. Nil disables it.
	Logger *slog.Logger
}

// Client is the cloud API client. It is safe for concurrent use.
type Client struct {
	config Config
	http   *http.Client

	mu           sync.Mutex
	baseURL      string
	token        string
	tokenExpires time.Time
	retriedAuth  bool

	cameras  map[string]*device.Camera
	sensors  map[string]*device.Sensor
	stations map[string]*device.Station

	listeners    map[int]func()
	nextListener int
}

var _ device.Backend = (*Client)(nil)

// New creates a Client, applying configuration defaults. Call Login
// before using it.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		config:    config,
		http:      httpClient,
		baseURL:   config.BaseURL,
		cameras:   make(map[string]*device.Camera),
		sensors:   make(map[string]*device.Sensor),
		stations:  make(map[string]*device.Station),
		listeners: make(map[int]func()),
	}
}

// Login authenticates the account and loads the device inventory.
func (c *Client) Login(ctx context.Context) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	return c.RefreshDevices(ctx)
}

// loginData is the payload of a successful passport login.
type loginData struct {
	AuthToken      string `json:"auth_token"`
	TokenExpiresAt int64  `json:"token_expires_at"`
	Domain         string `json:"domain"`
}

// authenticate fetches a fresh token. A domain in the response moves
// all subsequent requests to the account's regional endpoint.
func (c *Client) authenticate(ctx context.Context) error {
	data, err := c.doPost(ctx, "passport/login", map[string]string{
		"email":    c.config.Email,
		"password": c.config.Password,
	}, "")
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			return fmt.Errorf("%w: login rejected", ErrInvalidCredentials)
		}
		return err
	}

	var login loginData
	if err := json.Unmarshal(data, &login); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	c.mu.Lock()
	c.token = login.AuthToken
	c.tokenExpires = time.Unix(login.TokenExpiresAt, 0)
	if login.Domain != "" {
		c.baseURL = "https://" + login.Domain + "/v1"
	}
	c.mu.Unlock()

	if c.config.Logger != nil {
		c.config.Logger.Info("authenticated",
			"tokenExpires", time.Unix(login.TokenExpiresAt, 0),
			"domain", login.Domain)
	}
	return nil
}

// post runs an authenticated request. An expired token is refreshed
// before the request; a 401 triggers one re-authentication and retry,
// and a 401 on the retried request surfaces as ErrInvalidCredentials.
// Once that happens, later calls fail fast without hitting the login
// endpoint again until some request succeeds.
func (c *Client) post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	c.mu.Lock()
	token := c.token
	expired := !c.tokenExpires.IsZero() && !time.Now().Before(c.tokenExpires)
	c.mu.Unlock()

	if expired {
		if c.config.Logger != nil {
			c.config.Logger.Info("access token expired, fetching a new one")
		}
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
		c.mu.Lock()
		token = c.token
		c.mu.Unlock()
	}

	data, err := c.doPost(ctx, endpoint, body, token)
	if err == nil {
		c.clearAuthRetryGate()
		return data, nil
	}
	if !errors.Is(err, errUnauthorized) {
		return nil, err
	}

	c.mu.Lock()
	retried := c.retriedAuth
	c.retriedAuth = true
	c.mu.Unlock()
	if retried {
		return nil, fmt.Errorf("%w: token rejected again by %s", ErrInvalidCredentials, endpoint)
	}

	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	token = c.token
	c.mu.Unlock()

	data, err = c.doPost(ctx, endpoint, body, token)
	if err == nil {
		c.clearAuthRetryGate()
		return data, nil
	}
	if errors.Is(err, errUnauthorized) {
		return nil, fmt.Errorf("%w: fresh token rejected by %s", ErrInvalidCredentials, endpoint)
	}
	return nil, err
}

// clearAuthRetryGate re-arms the 401 retry after a request the cloud
// accepted.
func (c *Client) clearAuthRetryGate() {
	c.mu.Lock()
	c.retriedAuth = false
	c.mu.Unlock()
}

// envelope is the cloud's uniform response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) doPost(ctx context.Context, endpoint string, body any, token string) (json.RawMessage, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request to %s: %w", endpoint, err)
		}
		payload = bytes.NewReader(raw)
	}

	c.mu.Lock()
	url := c.baseURL + "/" + endpoint
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("request to %s: %w", endpoint, errUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request to %s failed with status %d", endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	if env.Code != 0 {
		return nil, envelopeError(endpoint, env.Code, env.Msg)
	}
	return env.Data, nil
}

// RefreshDevices reloads the device and station inventory. Existing
// handles are updated in place so references held by callers stay
// current; registered listeners are notified afterwards.
func (c *Client) RefreshDevices(ctx context.Context) error {
	data, err := c.post(ctx, "app/get_devs_list", nil)
	if err != nil {
		return err
	}
	var records []device.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to decode device list: %w", err)
	}

	c.mu.Lock()
	for _, rec := range records {
		switch {
		case rec.Type.IsCamera():
			if cam, ok := c.cameras[rec.Serial]; ok {
				cam.UpdateRecord(rec)
			} else {
				c.cameras[rec.Serial] = device.NewCamera(c, rec)
			}
		case rec.Type.IsSensor():
			if sen, ok := c.sensors[rec.Serial]; ok {
				sen.UpdateRecord(rec)
			} else {
				c.sensors[rec.Serial] = device.NewSensor(c, rec)
			}
		}
	}
	c.mu.Unlock()

	data, err = c.post(ctx, "app/get_hub_list", nil)
	if err != nil {
		return err
	}
	var stationRecords []device.StationRecord
	if err := json.Unmarshal(data, &stationRecords); err != nil {
		return fmt.Errorf("failed to decode station list: %w", err)
	}

	c.mu.Lock()
	for _, rec := range stationRecords {
		if !rec.Type.IsStation() {
			continue
		}
		if sta, ok := c.stations[rec.Serial]; ok {
			sta.UpdateRecord(rec)
		} else {
			c.stations[rec.Serial] = device.NewStation(c, rec, c.config.SessionOptions)
		}
	}
	listeners := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	cameras, sensors, stations := len(c.cameras), len(c.sensors), len(c.stations)
	c.mu.Unlock()

	if c.config.Logger != nil {
		c.config.Logger.Debug("inventory refreshed",
			"cameras", cameras,
			"sensors", sensors,
			"stations", stations)
	}
	for _, fn := range listeners {
		fn()
	}
	return nil
}

// History fetches the account's full event history.
func (c *Client) History(ctx context.Context) (json.RawMessage, error) {
	return c.post(ctx, "event/app/get_all_history_record", nil)
}

// Cameras returns a snapshot of the camera registry keyed by serial.
func (c *Client) Cameras() map[string]*device.Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*device.Camera, len(c.cameras))
	for sn, cam := range c.cameras {
		out[sn] = cam
	}
	return out
}

// Sensors returns a snapshot of the sensor registry keyed by serial.
func (c *Client) Sensors() map[string]*device.Sensor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*device.Sensor, len(c.sensors))
	for sn, sen := range c.sensors {
		out[sn] = sen
	}
	return out
}

// Stations returns a snapshot of the station registry keyed by serial.
func (c *Client) Stations() map[string]*device.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*device.Station, len(c.stations))
	for sn, sta := range c.stations {
		out[sn] = sta
	}
	return out
}

// Camera looks a camera up by serial.
func (c *Client) Camera(serial string) (*device.Camera, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cam, ok := c.cameras[serial]
	return cam, ok
}

// StationBySerial looks a station up by serial. Part of device.Backend.
func (c *Client) StationBySerial(serial string) (*device.Station, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sta, ok := c.stations[serial]
	return sta, ok
}

// dskKeyData is the payload of a DSK key response.
type dskKeyData struct {
	DSKKeys []struct {
		StationSN  string `json:"station_sn"`
		DSKKey     string `json:"dsk_key"`
		Expiration int64  `json:"expiration"`
	} `json:"dsk_keys"`
}

// DSKKey fetches the station's current DSK key. Part of device.Backend.
func (c *Client) DSKKey(ctx context.Context, stationSN string) (string, error) {
	data, err := c.post(ctx, "app/equipment/get_dsk_keys", map[string]any{
		"station_sns": []string{stationSN},
	})
	if err != nil {
		return "", err
	}

	var keys dskKeyData
	if err := json.Unmarshal(data, &keys); err != nil {
		return "", fmt.Errorf("failed to decode DSK key response: %w", err)
	}
	for _, item := range keys.DSKKeys {
		if item.StationSN == stationSN {
			return item.DSKKey, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDSKKey, stationSN)
}

// StartStream starts an RTSP stream and returns its URL. Part of
// device.Backend.
func (c *Client) StartStream(ctx context.Context, deviceSN, stationSN string) (string, error) {
	data, err := c.post(ctx, "web/equipment/start_stream", map[string]any{
		"device_sn":  deviceSN,
		"station_sn": stationSN,
		"proto":      2,
	})
	if err != nil {
		return "", err
	}

	var stream struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &stream); err != nil {
		return "", fmt.Errorf("failed to decode stream response: %w", err)
	}
	return stream.URL, nil
}

// StopStream stops a previously started stream. Part of device.Backend.
func (c *Client) StopStream(ctx context.Context, deviceSN, stationSN string) error {
	_, err := c.post(ctx, "web/equipment/stop_stream", map[string]any{
		"device_sn":  deviceSN,
		"station_sn": stationSN,
		"proto":      2,
	})
	return err
}

// UpdateDeviceParams uploads parameter assignments for a device. Part
// of device.Backend.
func (c *Client) UpdateDeviceParams(ctx context.Context, deviceSN, stationSN string, updates []device.ParamUpdate) error {
	_, err := c.post(ctx, "app/upload_devs_params", map[string]any{
		"device_sn":  deviceSN,
		"station_sn": stationSN,
		"params":     updates,
	})
	return err
}

// Subscribe registers a listener notified after every inventory
// refresh. The returned function removes the listener.
func (c *Client) Subscribe(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}
