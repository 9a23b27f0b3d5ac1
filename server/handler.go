// Package server exposes model conversion over HTTP.
package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/voxquad/api"
	"github.com/voxelsplace/voxquad/export"
	"github.com/voxelsplace/voxquad/utils"
	"github.com/voxelsplace/voxquad/vox"
)

// Error types reported in responses and the error metric.
const (
	ErrTypeBodyTooLarge     = "body_too_large"
	ErrTypeReadBody         = "read_body_failed"
	ErrTypeDecode           = "decode_failed"
	ErrTypeModelTooLarge    = "model_too_large"
	ErrTypeEncode           = "encode_failed"
	ErrTypeUnknownFormat    = utils.ErrTypeFormat
	ErrTypeMethodNotAllowed = "method_not_allowed"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderQuads     = "X-Voxquad-Quads"

	// DefaultMaxBodySize bounds uploaded model files.
	DefaultMaxBodySize = 64 << 20
)

// Handler serves the conversion API.
type Handler struct {
	// The maximum accepted request body in bytes. Zero means
	// DefaultMaxBodySize.
	MaxBodySize int64

	// The maximum number of cells of an accepted model. Zero means
	// vox.DefaultMaxCells.
	MaxCells uint64

	// The version reported by /version.
	Version string
}

// ServeMux returns the routes of the conversion API.
func (h *Handler) ServeMux() *http.ServeMux {
	var mux http.ServeMux
	mux.HandleFunc("/v1/convert", h.HandleConvert)
	mux.HandleFunc("/health", HandleHealthCheck)
	mux.HandleFunc("/version", HandleVersion(h.Version))
	mux.Handle("/metrics", promhttp.Handler())
	return &mux
}

type errorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}

// HandleConvert meshes the model file in the request body and answers with
// the format selected by the format query parameter (glb, json or stats).
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set(HeaderRequestID, requestID)

	query := r.URL.Query().Get("format")
	if query == "" {
		query = string(utils.FormatGLB)
	}
	// only parsed formats become metric labels
	format := unknownFormat

	fail := func(status int, err error) {
		instrumentConversionError(format, err)
		logs.WithTag("request_id", requestID).
			WithTag("format", query).
			WithTag("status", status).
			Warn(err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorResponse{
			Error:     err.Error(),
			Type:      errors.Type(err),
			RequestID: requestID,
		})
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		fail(http.StatusMethodNotAllowed, errors.New("method not allowed").
			WithType(ErrTypeMethodNotAllowed).
			WithTag("method", r.Method))
		return
	}

	f, err := utils.ParseFormat(query)
	if err != nil {
		fail(http.StatusBadRequest, err)
		return
	}
	format = string(f)

	maxSize := h.MaxBodySize
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSize))
	if err != nil {
		if _, ok := err.(*http.MaxBytesError); ok {
			fail(http.StatusRequestEntityTooLarge, errors.New("request body too large").
				WithType(ErrTypeBodyTooLarge).
				WithTag("limit", maxSize))
			return
		}
		fail(http.StatusBadRequest, errors.New("reading body failed").
			WithType(ErrTypeReadBody).
			Wrap(err))
		return
	}

	maxCells := h.MaxCells
	if maxCells == 0 {
		maxCells = vox.DefaultMaxCells
	}
	if hdr, err := vox.DecodeHeader(bytes.NewReader(body)); err == nil && hdr.Cells() > maxCells {
		fail(http.StatusRequestEntityTooLarge, errors.New("model too large").
			WithType(ErrTypeModelTooLarge).
			WithTag("width", hdr.Width).
			WithTag("height", hdr.Height).
			WithTag("depth", hdr.Depth).
			WithTag("limit", maxCells))
		return
	}

	res, err := api.PolygoniseWithLimit(body, maxCells)
	if err != nil {
		fail(http.StatusBadRequest, errors.New("decoding model failed").
			WithType(ErrTypeDecode).
			WithTag("size", len(body)).
			Wrap(err))
		return
	}

	var out bytes.Buffer
	var contentType string
	switch f {
	case utils.FormatGLB:
		contentType = "model/gltf-binary"
		err = export.WriteGLB(&out, res.Quads, res.Grid.Header(), export.DefaultOptions)
	case utils.FormatJSON:
		contentType = "application/json"
		err = export.WriteJSON(&out, res.Grid.Header(), res.Quads)
	case utils.FormatStats:
		contentType = "application/json"
		err = export.WriteStats(&out, export.Summarise(res.Grid, res.Quads))
	}
	if err != nil {
		fail(http.StatusInternalServerError, errors.New("encoding response failed").
			WithType(ErrTypeEncode).
			Wrap(err))
		return
	}

	instrumentConversion(format, len(res.Quads), start)
	logs.WithTag("request_id", requestID).
		WithTag("format", format).
		WithTag("model", res.Grid.String()).
		WithTag("quads", len(res.Quads)).
		WithTag("duration", time.Since(start)).
		Info("model converted")

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.Header().Set(HeaderQuads, strconv.Itoa(len(res.Quads)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}
