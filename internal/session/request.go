package session

import (
	"context"
	"fmt"
)

// Op identifies one kind of backend call. Each op has its own request slot.
type Op int

const (
	OpFetch Op = iota
	OpCreate
	OpLogin
	OpRemove
	opCount
)

func (o Op) String() string {
	switch o {
	case OpFetch:
		return "fetch"
	case OpCreate:
		return "create"
	case OpLogin:
		return "login"
	case OpRemove:
		return "remove"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Request is the observable state of the latest call of one Op. Token
// identifies that call; responses carrying an older token are dropped.
type Request struct {
	Status Status
	Err    error
	Token  uint64
}

type slot struct {
	req    Request
	cancel context.CancelFunc
}

// begin starts a new request for op, cancelling the one it supersedes.
// Caller holds c.mu.
func (c *Controller) begin(parent context.Context, op Op) (context.Context, uint64) {
	s := &c.reqs[op]
	if s.cancel != nil {
		s.cancel()
	}

	c.nextToken++
	ctx, cancel := context.WithCancel(parent)
	*s = slot{
		req:    Request{Status: Pending, Token: c.nextToken},
		cancel: cancel,
	}
	c.errMsg = ""
	return ctx, c.nextToken
}

// finish records the outcome of the request identified by token and
// reports whether it was still current. Caller holds c.mu.
func (c *Controller) finish(op Op, token uint64, err error) bool {
	s := &c.reqs[op]
	if s.req.Token != token || s.req.Status != Pending {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if err != nil {
		s.req.Status, s.req.Err = Failed, err
	} else {
		s.req.Status, s.req.Err = Succeeded, nil
	}
	return true
}

// abandon cancels an in-flight request and makes its eventual response
// stale. Caller holds c.mu.
func (c *Controller) abandon(op Op) {
	s := &c.reqs[op]
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.req.Status == Pending {
		c.nextToken++
		s.req = Request{Status: Idle, Token: c.nextToken}
	}
}
