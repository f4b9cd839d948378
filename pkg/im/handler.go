package im

import (
	"bytes"
	"context"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/tlv"
	"github.com/pion/logging"
)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Router *datamodel.Router

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// Handler executes single data model operations and reports the outcome as
// a status code, the way an interaction would carry it on the wire.
type Handler struct {
	router *datamodel.Router
	log    logging.LeveledLogger
}

// NewHandler creates a handler.
func NewHandler(config HandlerConfig) *Handler {
	h := &Handler{router: config.Router}
	if config.LoggerFactory != nil {
		h.log = config.LoggerFactory.NewLogger("im")
	}
	return h
}

// AttributeReport is the outcome of one attribute read.
type AttributeReport struct {
	Path   datamodel.ConcreteAttributePath
	Status Status

	// Data is the encoded attribute data frame. It is nil when the read
	// failed or was skipped because the requester holds the current
	// data version.
	Data []byte
}

// ReadAttribute reads one attribute.
func (h *Handler) ReadAttribute(ctx context.Context, req datamodel.ReadAttributeRequest) AttributeReport {
	var buf bytes.Buffer
	enc := datamodel.NewAttrDataEncoder(&buf, req)
	err := h.router.ReadAttribute(ctx, req, enc)

	report := AttributeReport{Path: req.Path, Status: ErrorToStatus(err)}
	if err != nil {
		h.warnf("read %v: %v (%v)", req.Path, report.Status, err)
		return report
	}
	if enc.Emitted() {
		report.Data = buf.Bytes()
	}
	return report
}

// InvokeResponse is the outcome of one command invocation.
type InvokeResponse struct {
	Path   datamodel.ConcreteCommandPath
	Status Status

	// Fields holds the TLV encoded response command fields, or nil for a
	// status-only response.
	Fields []byte
}

// Invoke runs one command with TLV encoded fields. Empty fields are
// passed as an empty request.
func (h *Handler) Invoke(ctx context.Context, req datamodel.InvokeRequest, fields []byte) InvokeResponse {
	resp, err := h.router.InvokeCommand(ctx, req, readerFor(fields))
	out := InvokeResponse{Path: req.Path, Status: ErrorToStatus(err), Fields: resp}
	if err != nil {
		h.warnf("invoke %v: %v (%v)", req.Path, out.Status, err)
	}
	return out
}

// WriteAttribute writes one attribute from a TLV encoded value.
func (h *Handler) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, value []byte) Status {
	err := h.router.WriteAttribute(ctx, req, readerFor(value))
	status := ErrorToStatus(err)
	if err != nil {
		h.warnf("write %v: %v (%v)", req.Path, status, err)
	}
	return status
}

func readerFor(data []byte) *tlv.Reader {
	return tlv.NewReader(bytes.NewReader(data))
}

func (h *Handler) warnf(format string, args ...interface{}) {
	if h.log != nil {
		h.log.Warnf(format, args...)
	}
}
