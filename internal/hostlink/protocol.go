package hostlink

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/record"
)

// Event names.
const (
	CallEvent        = "compstash:call"
	ReplyEventPrefix = "compstash:reply:"
)

// Methods.
const (
	MethodDescribe     = "describe"
	MethodCreate       = "create"
	MethodDestroy      = "destroy"
	MethodSetPosition  = "set_position"
	MethodSetParameter = "set_parameter"
	MethodConnect      = "connect"
)

// Error codes.
const (
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
	CodeFailed     = "failed"
)

// Request is one call sent to the host.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// Reply is the host's answer to a Request.
type Reply struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ReplyError     `json:"error,omitempty"`
}

// ReplyError is a failure reported by the host.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RemoteError is returned for a reply carrying an error.
type RemoteError struct {
	Method  string
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("host %s failed (%s): %s", e.Method, e.Code, e.Message)
}

// Is makes not_found replies match host.ErrNodeNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == host.ErrNodeNotFound && e.Code == CodeNotFound
}

// SlotDescription is a connector on the wire. Null means empty.
type SlotDescription struct {
	Path  string `json:"path,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Description is a node snapshot on the wire.
type Description struct {
	Name       string             `json:"name"`
	Path       string             `json:"path"`
	ClassName  string             `json:"class_name"`
	Position   record.Position    `json:"position"`
	Parameters map[string]any     `json:"parameters"`
	Inputs     []*SlotDescription `json:"inputs"`
	Outputs    []*SlotDescription `json:"outputs"`
	Children   []string           `json:"children"`
}

type pathArgs struct {
	Path string `json:"path"`
}

type createArgs struct {
	Parent    string `json:"parent"`
	ClassName string `json:"class_name"`
	Name      string `json:"name"`
}

type positionArgs struct {
	Path     string          `json:"path"`
	Position record.Position `json:"position"`
}

type parameterArgs struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type parameterResult struct {
	Known bool `json:"known"`
}

type connectArgs struct {
	Path   string        `json:"path"`
	Kind   host.PortKind `json:"kind"`
	Index  int           `json:"index"`
	Target string        `json:"target"`
}

// Describe snapshots a node into its wire form.
func Describe(n host.Node) (*Description, error) {
	children, err := n.Children()
	if err != nil {
		return nil, err
	}
	d := &Description{
		Name:       n.Name(),
		Path:       n.Path(),
		ClassName:  n.ClassName(),
		Position:   n.Position(),
		Parameters: n.Parameters(),
		Inputs:     describeSlots(n.Inputs()),
		Outputs:    describeSlots(n.Outputs()),
		Children:   make([]string, 0, len(children)),
	}
	if d.Parameters == nil {
		d.Parameters = map[string]any{}
	}
	for _, c := range children {
		d.Children = append(d.Children, c.Path())
	}
	return d, nil
}

func describeSlots(slots []host.Slot) []*SlotDescription {
	out := make([]*SlotDescription, len(slots))
	for i, s := range slots {
		if !s.IsEmpty() {
			out[i] = &SlotDescription{Path: s.Path, Value: s.Value}
		}
	}
	return out
}

func (d *SlotDescription) slot() host.Slot {
	if d == nil {
		return host.Slot{}
	}
	return host.Slot{Path: d.Path, Value: d.Value}
}

// Dispatch executes req against h and returns the reply to send back.
func Dispatch(h host.Host, req Request) Reply {
	result, err := dispatch(h, req)
	if err != nil {
		code := CodeFailed
		var bad *badRequestError
		switch {
		case errors.Is(err, host.ErrNodeNotFound):
			code = CodeNotFound
		case errors.As(err, &bad):
			code = CodeBadRequest
		}
		return Reply{Error: &ReplyError{Code: code, Message: err.Error()}}
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return Reply{Error: &ReplyError{Code: CodeFailed, Message: err.Error()}}
	}
	return Reply{Result: raw}
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return "bad request: " + e.err.Error() }

func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &badRequestError{err: err}
	}
	return nil
}

func dispatch(h host.Host, req Request) (any, error) {
	switch req.Method {
	case MethodDescribe:
		var args pathArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		n, err := h.Lookup(args.Path)
		if err != nil {
			return nil, err
		}
		return Describe(n)

	case MethodCreate:
		var args createArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		parent, err := h.Lookup(args.Parent)
		if err != nil {
			return nil, err
		}
		n, err := parent.Create(args.ClassName, args.Name)
		if err != nil {
			return nil, err
		}
		return Describe(n)

	case MethodDestroy:
		var args pathArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		n, err := h.Lookup(args.Path)
		if err != nil {
			return nil, err
		}
		return struct{}{}, n.Destroy()

	case MethodSetPosition:
		var args positionArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		n, err := h.Lookup(args.Path)
		if err != nil {
			return nil, err
		}
		return struct{}{}, n.SetPosition(args.Position)

	case MethodSetParameter:
		var args parameterArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		n, err := h.Lookup(args.Path)
		if err != nil {
			return nil, err
		}
		known, err := n.SetParameter(args.Name, args.Value)
		return parameterResult{Known: known}, err

	case MethodConnect:
		var args connectArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return nil, err
		}
		n, err := h.Lookup(args.Path)
		if err != nil {
			return nil, err
		}
		target, err := h.Lookup(args.Target)
		if err != nil {
			return nil, err
		}
		return struct{}{}, n.Connect(args.Kind, args.Index, target)

	default:
		return nil, &badRequestError{err: fmt.Errorf("unknown method %q", req.Method)}
	}
}
