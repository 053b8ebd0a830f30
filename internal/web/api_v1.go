package web

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"strconv"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/render"
	"github.com/rook-computer/statuslcd/internal/state"
	xdraw "golang.org/x/image/draw"
)

const maxScreenScale = 8

// Device is the read side of the running app.
type Device interface {
	ConnectionState() state.ConnectionState
	IsReady() bool
	Message() screens.Message
	Frame() *render.Framebuffer
}

type APIV1Deps struct {
	Device Device
	// Port the web UI is reachable on, used to build the QR code URL.
	Port string
	Hub  *Hub
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type statusResponse struct {
	State   string   `json:"state"`
	Reason  int      `json:"reason,omitempty"`
	Address string   `json:"address,omitempty"`
	Ready   bool     `json:"ready"`
	Lines   []string `json:"lines"`
}

func newStatusResponse(s state.ConnectionState, ready bool, msg screens.Message) statusResponse {
	return statusResponse{
		State:   s.Kind.String(),
		Reason:  s.Reason,
		Address: s.Address,
		Ready:   ready,
		Lines:   msg.Lines(),
	}
}

func apiV1Router(deps APIV1Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { handleStatus(w, r, deps) })
	mux.HandleFunc("/screen.png", func(w http.ResponseWriter, r *http.Request) { handleScreen(w, r, deps) })
	mux.HandleFunc("/qr.png", func(w http.ResponseWriter, r *http.Request) { handleQR(w, r, deps) })
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) { handleEvents(w, r, deps) })
	return mux
}

func handleStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(deps.Device.ConnectionState(), deps.Device.IsReady(), deps.Device.Message()))
}

// handleScreen returns the panel contents as PNG, optionally enlarged with ?scale=N.
func handleScreen(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	scale := 1
	if raw := r.URL.Query().Get("scale"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxScreenScale {
			writeAPIError(w, http.StatusBadRequest, "bad_scale", "scale must be 1.."+strconv.Itoa(maxScreenScale))
			return
		}
		scale = n
	}

	var img image.Image = deps.Device.Frame()
	if scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_ = png.Encode(w, img)
}

func handleQR(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	s := deps.Device.ConnectionState()
	if s.Kind != state.CONNECTED || s.Address == "" {
		writeAPIError(w, http.StatusConflict, "not_connected", "device has no network address")
		return
	}
	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}
	pngBytes, err := render.QRCodePNG(DeviceURL(s.Address, deps.Port), size, color.Black, color.White)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(pngBytes)
}

// DeviceURL is the address users open in a browser to reach this device.
func DeviceURL(address, port string) string {
	host := address
	if port != "" && port != "80" {
		host = net.JoinHostPort(address, port)
	}
	return "http://" + host + "/"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
