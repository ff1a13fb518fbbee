package main

import (
	"errors"
	"strings"
	"time"

	"github.com/grparry/mcpinvoke/tools"
)

// The demo handler set gives the binary something to serve out of the box,
// mainly for smoke-testing MCP clients against a known toolset.

// CalcService exposes basic arithmetic.
type CalcService struct{}

func (CalcService) Add(a, b int) int { return a + b }

func (CalcService) Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

// EchoService repeats what it is given.
type EchoService struct{}

type EchoRequest struct {
	Message string `json:"message"`
	Repeat  int    `json:"repeat,omitempty"`
}

func (EchoService) Echo(req EchoRequest) string {
	n := req.Repeat
	if n < 1 {
		n = 1
	}
	return strings.Repeat(req.Message, n)
}

func demoHandlers() *tools.HandlerSet {
	hs := tools.NewHandlerSet()
	hs.Register(CalcService{},
		tools.WithMethodDescription("Add", "Add two integers"),
		tools.WithMethodDescription("Divide", "Divide a by b"),
		tools.WithParamNames("Add", "a", "b"),
		tools.WithParamNames("Divide", "a", "b"),
	)
	hs.Register(EchoService{},
		tools.WithMethodDescription("Echo", "Echo a message, optionally repeated"),
	)
	hs.RegisterFunc("now", func() string {
		return time.Now().UTC().Format(time.RFC3339)
	}, tools.WithDescription("Current UTC time in RFC 3339 format"))
	return hs
}
