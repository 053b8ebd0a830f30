package web

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/render"
	"github.com/rook-computer/statuslcd/internal/state"
)

type fakeDevice struct {
	mu    sync.Mutex
	state state.ConnectionState
	msg   screens.Message
	fb    *render.Framebuffer
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	fb, err := render.NewFramebuffer(128, 128)
	if err != nil {
		t.Fatalf("NewFramebuffer err=%v", err)
	}
	fb.PutPixel(0, 0, render.White)
	return &fakeDevice{state: state.Connecting(), msg: screens.Message{Line1: "network:", Line2: "starting...", Line3: "wifinet"}, fb: fb}
}

func (d *fakeDevice) set(s state.ConnectionState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *fakeDevice) ConnectionState() state.ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
func (d *fakeDevice) IsReady() bool              { return d.ConnectionState().Kind == state.CONNECTED }
func (d *fakeDevice) Message() screens.Message   { return d.msg }
func (d *fakeDevice) Frame() *render.Framebuffer { return d.fb.Clone() }

func newTestServer(t *testing.T, dev Device, hub *Hub, devMode bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewDefaultMux(ServerConfig{DevMode: devMode}, APIV1Deps{Device: dev, Port: "8080", Hub: hub}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusEndpoint(t *testing.T) {
	dev := newFakeDevice(t)
	srv := newTestServer(t, dev, nil, false)

	resp, err := http.Get(srv.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	defer resp.Body.Close()
	var got statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if got.State != "connecting" || got.Ready || len(got.Lines) != 3 || got.Lines[1] != "starting..." {
		t.Fatalf("unexpected status %+v", got)
	}

	dev.set(state.Disconnected(201))
	resp2, err := http.Get(srv.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	defer resp2.Body.Close()
	got = statusResponse{}
	_ = json.NewDecoder(resp2.Body).Decode(&got)
	if got.State != "disconnected" || got.Reason != 201 {
		t.Fatalf("status did not follow device state: %+v", got)
	}

	post, err := http.Post(srv.URL+"/api/v1/status", "application/json", nil)
	if err != nil {
		t.Fatalf("POST err=%v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", post.StatusCode)
	}
}

func TestScreenEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeDevice(t), nil, false)

	resp, err := http.Get(srv.URL + "/api/v1/screen.png?scale=2")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	defer resp.Body.Close()
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("png decode err=%v", err)
	}
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 256 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xFFFF {
		t.Fatalf("expected white top-left block")
	}
	if r, _, _, _ := img.At(2, 0).RGBA(); r != 0 {
		t.Fatalf("expected black next to the white block")
	}

	bad, err := http.Get(srv.URL + "/api/v1/screen.png?scale=99")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}
}

func TestQREndpoint(t *testing.T) {
	dev := newFakeDevice(t)
	srv := newTestServer(t, dev, nil, false)

	resp, err := http.Get(srv.URL + "/api/v1/qr.png")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while not connected, got %d", resp.StatusCode)
	}

	dev.set(state.Connected("192.168.4.2"))
	resp, err = http.Get(srv.URL + "/api/v1/qr.png?size=128")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Fatalf("qr is not a png: %v", err)
	}
}

func TestDeviceURL(t *testing.T) {
	cases := map[[2]string]string{
		{"10.0.0.2", "80"}:   "http://10.0.0.2/",
		{"10.0.0.2", ""}:     "http://10.0.0.2/",
		{"10.0.0.2", "8080"}: "http://10.0.0.2:8080/",
	}
	for in, want := range cases {
		if got := DeviceURL(in[0], in[1]); got != want {
			t.Fatalf("DeviceURL(%q,%q)=%q want %q", in[0], in[1], got, want)
		}
	}
	if got := (ServerConfig{ListenAddr: ":9000"}).Port(); got != "9000" {
		t.Fatalf("Port()=%q", got)
	}
}

func TestDevCORS(t *testing.T) {
	srv := newTestServer(t, newFakeDevice(t), nil, true)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS err=%v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected preflight %d %v", resp.StatusCode, resp.Header)
	}
}

func TestEventsStream(t *testing.T) {
	dev := newFakeDevice(t)
	hub := NewHub()
	defer hub.Close()
	srv := newTestServer(t, dev, hub, false)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial err=%v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello struct {
		Type string         `json:"type"`
		Data statusResponse `json:"data"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello err=%v", err)
	}
	if hello.Type != "hello" || hello.Data.State != "connecting" {
		t.Fatalf("unexpected hello %+v", hello)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	observe := StatusObserver(hub)
	observe(state.Connected("10.0.0.9"), screens.Message{Line1: "network: connected", Line2: "address:", Line3: "10.0.0.9"})

	var ev struct {
		Type  string         `json:"type"`
		Event string         `json:"event"`
		Data  statusResponse `json:"data"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event err=%v", err)
	}
	if ev.Type != "event" || ev.Event != "status" || ev.Data.Address != "10.0.0.9" || !ev.Data.Ready {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping err=%v", err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil || pong.Type != "pong" {
		t.Fatalf("expected pong, got %+v err=%v", pong, err)
	}
}

func TestEventsWithoutHub(t *testing.T) {
	srv := newTestServer(t, newFakeDevice(t), nil, false)
	resp, err := http.Get(srv.URL + "/api/v1/events")
	if err != nil {
		t.Fatalf("GET err=%v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}

func TestHubDropsClientsOnClose(t *testing.T) {
	hub := NewHub()
	c := hub.Register(nil)
	if hub.Len() != 1 {
		t.Fatalf("expected 1 client")
	}
	hub.Close()
	if _, ok := <-c.Send; ok {
		t.Fatalf("send channel should be closed")
	}
	late := hub.Register(nil)
	if _, ok := <-late.Send; ok || hub.Len() != 0 {
		t.Fatalf("closed hub should refuse clients")
	}
	hub.Broadcast("status", nil)
}
