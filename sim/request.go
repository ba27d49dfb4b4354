// Defines the Request struct that models a single unit of work dispatched to the fleet.
// Tracks the sequence ID, arrival timestamp, and the type/size pair that fixes its service time.

package sim

import (
	"fmt"
	"sync/atomic"
	"time"
)

// RequestType labels the kind of work a request carries.
type RequestType int

const (
	CpuBound RequestType = iota
	IoBound
	Mixed
)

// RequestTypes lists every RequestType in declaration order.
var RequestTypes = []RequestType{CpuBound, IoBound, Mixed}

var requestTypeNames = map[RequestType]string{
	CpuBound: "CpuBound",
	IoBound:  "IoBound",
	Mixed:    "Mixed",
}

func (t RequestType) String() string {
	if name, ok := requestTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RequestType(%d)", int(t))
}

// ParseRequestType maps a config name ("cpu-bound", "CpuBound", ...) to a RequestType.
func ParseRequestType(name string) (RequestType, error) {
	switch name {
	case "cpu-bound", "cpu", "CpuBound":
		return CpuBound, nil
	case "io-bound", "io", "IoBound":
		return IoBound, nil
	case "mixed", "Mixed":
		return Mixed, nil
	}
	return 0, fmt.Errorf("unknown request type %q", name)
}

// RequestSize fixes the nominal service duration of a request.
type RequestSize int

const (
	Small RequestSize = iota
	Mid
	Large
)

// RequestSizes lists every RequestSize in declaration order.
var RequestSizes = []RequestSize{Small, Mid, Large}

var requestSizeNominal = map[RequestSize]time.Duration{
	Small: 100 * time.Millisecond,
	Mid:   300 * time.Millisecond,
	Large: 1000 * time.Millisecond,
}

var requestSizeNames = map[RequestSize]string{
	Small: "Small",
	Mid:   "Mid",
	Large: "Large",
}

// Nominal returns the fixed service duration for the size.
// Panics on values outside the declared set.
func (s RequestSize) Nominal() time.Duration {
	d, ok := requestSizeNominal[s]
	if !ok {
		panic(fmt.Sprintf("RequestSize.Nominal: unknown size %d", int(s)))
	}
	return d
}

func (s RequestSize) String() string {
	if name, ok := requestSizeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RequestSize(%d)", int(s))
}

// ParseRequestSize maps a config name ("small", "Mid", ...) to a RequestSize.
func ParseRequestSize(name string) (RequestSize, error) {
	switch name {
	case "small", "Small":
		return Small, nil
	case "mid", "medium", "Mid":
		return Mid, nil
	case "large", "Large":
		return Large, nil
	}
	return 0, fmt.Errorf("unknown request size %q", name)
}

// Request is immutable after creation. It is shared by pointer between the
// generator, the dispatcher and one server, none of which write to it.
type Request struct {
	ID          uint64      // monotonic sequence number, unique within a run
	ArrivalTime time.Time   // simulated time the request was generated
	Type        RequestType // label; see ServiceTime for its timing effect
	Size        RequestSize // fixes the nominal service duration
}

// RequestSequence issues monotonic request IDs starting at 1.
// Thread-safety: safe for concurrent use.
type RequestSequence struct {
	last atomic.Uint64
}

// Next returns the next unused ID.
func (s *RequestSequence) Next() uint64 {
	return s.last.Add(1)
}

// Issued returns how many IDs have been handed out.
func (s *RequestSequence) Issued() uint64 {
	return s.last.Load()
}

// NewRequest creates a request with the given sequence ID and arrival time.
func NewRequest(id uint64, arrival time.Time, typ RequestType, size RequestSize) *Request {
	return &Request{
		ID:          id,
		ArrivalTime: arrival,
		Type:        typ,
		Size:        size,
	}
}

// Name renders the request's size/type label, e.g. "Large IoBound".
func (req *Request) Name() string {
	return fmt.Sprintf("%s %s", req.Size, req.Type)
}

// Jitterable reports whether the request type allows service-time variability.
// CpuBound work always takes exactly its nominal duration.
func (req *Request) Jitterable() bool {
	return req.Type == IoBound || req.Type == Mixed
}

// ServiceTime returns the time a server spends on the request.
// factor scales the nominal duration and is only honoured for jitterable
// types; pass 1 for the constant baseline.
func (req *Request) ServiceTime(factor float64) time.Duration {
	nominal := req.Size.Nominal()
	if !req.Jitterable() || factor <= 0 {
		return nominal
	}
	return time.Duration(float64(nominal) * factor)
}

func (req *Request) String() string {
	return fmt.Sprintf("Request: (ID: %d, %s, Nominal: %v, ArrivalTime: %s)",
		req.ID, req.Name(), req.Size.Nominal(), req.ArrivalTime.Format(time.StampMilli))
}
