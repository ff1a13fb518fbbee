package tools

// Shared fixtures for the package tests: a couple of handler types with the
// parameter shapes the binder and schema generator have to cover.

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Color is a string-backed enumerated type.
type Color string

const (
	ColorRed   Color = "red"
	ColorGreen Color = "green"
	ColorBlue  Color = "blue"
)

func (Color) EnumValues() []EnumValue {
	return []EnumValue{
		{Name: "red", Value: ColorRed},
		{Name: "green", Value: ColorGreen},
		{Name: "blue", Value: ColorBlue},
	}
}

// Priority is an integer-backed enumerated type.
type Priority int

const (
	PriorityLow  Priority = 1
	PriorityHigh Priority = 10
)

func (Priority) EnumValues() []EnumValue {
	return []EnumValue{
		{Name: "low", Value: PriorityLow},
		{Name: "high", Value: PriorityHigh},
	}
}

type BaseEntity struct {
	ID    int    `json:"id"`
	Owner string `json:"owner,omitempty"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city,omitempty"`
}

type Pet struct {
	BaseEntity
	Name    string     `json:"name"`
	Color   Color      `json:"color,omitempty"`
	Tags    []string   `json:"tags,omitempty"`
	Address *Address   `json:"address,omitempty"`
	Born    *time.Time `json:"born,omitempty"`

	// Overrides the promoted BaseEntity.Owner.
	Owner string `json:"owner,omitempty"`
}

type ShadowBase struct {
	Label string `json:"label,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// ShadowOuter declares label before the embedded struct that also carries
// one; Go promotion exposes the outer field.
type ShadowOuter struct {
	Label string `json:"label"`
	ShadowBase
}

type SiblingA struct {
	Tag string `json:"tag"`
}

type SiblingB struct {
	Tag string `json:"tag"`
}

// Conflicted promotes tag from two embedded structs at the same depth.
type Conflicted struct {
	SiblingA
	SiblingB
	Name string `json:"name"`
}

// Reclaimed declares its own tag after the conflicting embeds; the
// shallower declaration wins.
type Reclaimed struct {
	SiblingA
	SiblingB
	Tag string `json:"tag"`
}

// LinkedNode embeds itself anonymously.
type LinkedNode struct {
	*LinkedNode
	Value string `json:"value"`
}

// TreeNode is self-referential in two ways.
type TreeNode struct {
	Value    string     `json:"value"`
	Parent   *TreeNode  `json:"parent,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

type CalcService struct{}

func (CalcService) Add(a, b int) int { return a + b }

func (CalcService) Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

type CreatePetRequest struct {
	Name     string   `json:"name"`
	Priority Priority `json:"priority,omitempty"`
	Address  *Address `json:"address,omitempty"`
}

type PetService struct {
	created []Pet
}

func (s *PetService) Create(req CreatePetRequest) Pet {
	pet := Pet{Name: req.Name}
	s.created = append(s.created, pet)
	return pet
}

func (s *PetService) Get(ctx context.Context, id int) (Pet, error) {
	if err := ctx.Err(); err != nil {
		return Pet{}, err
	}
	if id < 0 {
		return Pet{}, fmt.Errorf("no pet with id %d", id)
	}
	return Pet{BaseEntity: BaseEntity{ID: id}, Name: "Fluffy"}, nil
}

func (s *PetService) Paint(id int, color Color) string {
	return fmt.Sprintf("pet %d is now %s", id, color)
}

// envelope mimics a host framework's status/result wrapper.
type envelope struct {
	payload any
	err     error
}

func (e envelope) Unwrap() (any, error) { return e.payload, e.err }

type EnvelopeService struct{}

func (EnvelopeService) Wrapped(ok bool) envelope {
	if !ok {
		return envelope{err: errors.New("operation rejected")}
	}
	return envelope{payload: map[string]string{"status": "created"}}
}

type PanicService struct{}

func (PanicService) Boom() string { panic("kaboom") }

func timeFixture() time.Time { return time.Time{} }

func petHandlerSet() *HandlerSet {
	hs := NewHandlerSet()
	hs.Register(CalcService{},
		tWithNames("Add"),
		tWithNames("Divide"),
	)
	hs.Register(&PetService{},
		WithRoute("/api/pets/{id}"),
		WithMethodDescription("Get", "Fetch a pet by id"),
		WithParamNames("Get", "id"),
		WithParamNames("Paint", "id", "color"),
	)
	return hs
}

// tWithNames names the two-parameter calc methods.
func tWithNames(method string) RegisterOption {
	return WithParamNames(method, "a", "b")
}
