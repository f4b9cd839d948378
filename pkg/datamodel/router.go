package datamodel

import (
	"context"

	"github.com/backkem/matter-appliances/pkg/tlv"
	"github.com/pion/logging"
)

// RouterConfig configures a Router.
type RouterConfig struct {
	Node Node

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// Router routes read, write and invoke operations to the cluster instance
// addressed by the concrete path.
type Router struct {
	node Node
	log  logging.LeveledLogger
}

// NewRouter creates a router over a node.
func NewRouter(config RouterConfig) *Router {
	r := &Router{node: config.Node}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("router")
	}
	return r
}

// Node returns the routed node.
func (r *Router) Node() Node {
	return r.node
}

// ReadAttribute reads an attribute from the addressed cluster.
func (r *Router) ReadAttribute(ctx context.Context, req ReadAttributeRequest, enc *AttrDataEncoder) error {
	c, err := LookupCluster(r.node, req.Path.ClusterPath())
	if err != nil {
		return err
	}
	if err := c.ReadAttribute(ctx, req, enc); err != nil {
		r.debugf("read %v: %v", req.Path, err)
		return err
	}
	return nil
}

// WriteAttribute writes an attribute on the addressed cluster.
func (r *Router) WriteAttribute(ctx context.Context, req WriteAttributeRequest, reader *tlv.Reader) error {
	c, err := LookupCluster(r.node, req.Path.ClusterPath())
	if err != nil {
		return err
	}
	if err := c.WriteAttribute(ctx, req, reader); err != nil {
		r.debugf("write %v: %v", req.Path, err)
		return err
	}
	return nil
}

// InvokeCommand invokes a command on the addressed cluster.
func (r *Router) InvokeCommand(ctx context.Context, req InvokeRequest, reader *tlv.Reader) ([]byte, error) {
	c, err := LookupCluster(r.node, req.Path.ClusterPath())
	if err != nil {
		return nil, err
	}
	resp, err := c.InvokeCommand(ctx, req, reader)
	if err != nil {
		r.debugf("invoke %v: %v", req.Path, err)
		return nil, err
	}
	return resp, nil
}

func (r *Router) debugf(format string, args ...interface{}) {
	if r.log != nil {
		r.log.Debugf(format, args...)
	}
}
