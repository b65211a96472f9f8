// Package header provides header handling for the wireline gateway.
//
// The gateway sits between a chat-completion client and the framed-protobuf
// backend like so:
//
//	Client <--> Gateway <--> Backend
//
// and headers are handled accordingly: the client leg speaks JSON and SSE,
// the backend leg speaks length-prefixed protobuf, so each leg negotiates
// content type, compression, hops, etc. independently.
package header

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler manages headers between gateway connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ContentTypeProto is the content type the backend expects for framed
// protobuf request bodies.
const ContentTypeProto = "application/connect+proto"

// RequestIDHeader is the optional header used to correlate gateway exchanges.
const RequestIDHeader = "X-Wireline-Request-Id"

// forwardRequest is the set of client request headers (client --> gateway -->
// backend) that are forwarded to the backend. The gateway rewrites the body
// from JSON to framed protobuf, so content negotiation headers from the
// client would misdescribe what actually goes upstream; only credentials and
// correlation survive the translation.
var forwardRequest = map[string]struct{}{
	"Authorization":   {},
	RequestIDHeader:   {},
	"X-Forwarded-For": {},
}

// SetUpstreamRequestHeaders populates the outgoing http.Request headers for
// the backend leg: forwards the allow-listed client headers and sets the
// framed-protobuf content type.
func (h *Handler) SetUpstreamRequestHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := http.CanonicalHeaderKey(string(key))
		if _, forward := forwardRequest[k]; forward {
			req.Header.Set(k, string(value))
		}
	})

	req.Header.Set("Content-Type", ContentTypeProto)
}

// SetClientResponseHeaders sets response headers for the client leg. The
// backend's response headers describe the framed encoding and are dropped
// wholesale; the gateway serves JSON or SSE of its own making. Only the
// correlation id is copied through.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	if id := resp.Header.Get(RequestIDHeader); id != "" {
		c.Set(RequestIDHeader, id)
	}
}
