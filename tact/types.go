// Package tact holds cell bindings for the structs and messages of Tact
// contracts: hand-written store/load pairs for the standard library types,
// and a schema-driven codec for any type described by a contract's ABI file.
package tact

import (
	"math/big"

	"github.com/branched-services/go-tvmcell"
)

// StateInit is the code and data a contract is deployed with.
type StateInit struct {
	Code *tvmcell.Cell
	Data *tvmcell.Cell
}

// Store writes both cells as references.
func (x *StateInit) Store(b *tvmcell.Builder) error {
	if x.Code == nil {
		return fieldErr("StateInit", "code", ErrMissingField)
	}
	if x.Data == nil {
		return fieldErr("StateInit", "data", ErrMissingField)
	}
	if b.AvailableRefs() < 2 {
		return fieldErr("StateInit", "code", tvmcell.ErrTooManyRefs)
	}
	if err := b.StoreRef(x.Code); err != nil {
		return fieldErr("StateInit", "code", err)
	}
	return fieldErr("StateInit", "data", b.StoreRef(x.Data))
}

// LoadStateInit reads a StateInit written by StateInit.Store.
func LoadStateInit(s *tvmcell.Slice) (*StateInit, error) {
	if s.RemainingRefs() < 2 {
		return nil, fieldErr("StateInit", "code", tvmcell.ErrNoMoreRefs)
	}
	code, _ := s.LoadRef()
	data, _ := s.LoadRef()
	return &StateInit{Code: code, Data: data}, nil
}

// NewStateInit returns the deployment state of a contract without init
// arguments: the data cell holds the system cell as a reference followed by
// a zero "initialized" bit.
func NewStateInit(code, system *tvmcell.Cell) (*StateInit, error) {
	b := tvmcell.BeginCell()
	if err := b.StoreRef(system); err != nil {
		return nil, fieldErr("StateInit", "data", err)
	}
	if err := b.StoreBit(false); err != nil {
		return nil, fieldErr("StateInit", "data", err)
	}
	data, err := b.EndCell()
	if err != nil {
		return nil, fieldErr("StateInit", "data", err)
	}
	return &StateInit{Code: code, Data: data}, nil
}

// Context describes the message a contract is handling.
type Context struct {
	Bounced bool
	Sender  *tvmcell.Address
	Value   *big.Int // int257
	Raw     *tvmcell.Cell
}

// Store writes the bounced flag, sender, value and raw message reference.
func (x *Context) Store(b *tvmcell.Builder) error {
	if x.Raw == nil {
		return fieldErr("Context", "raw", ErrMissingField)
	}
	if x.Sender == nil {
		return fieldErr("Context", "sender", ErrMissingField)
	}
	if err := b.StoreBit(x.Bounced); err != nil {
		return fieldErr("Context", "bounced", err)
	}
	if err := b.StoreAddress(x.Sender); err != nil {
		return fieldErr("Context", "sender", err)
	}
	if err := b.StoreBigInt(x.Value, 257); err != nil {
		return fieldErr("Context", "value", err)
	}
	return fieldErr("Context", "raw", b.StoreRef(x.Raw))
}

// LoadContext reads a Context. On failure the slice is left unchanged.
func LoadContext(s *tvmcell.Slice) (*Context, error) {
	p := s.Clone()
	x := &Context{}
	var err error
	if x.Bounced, err = p.LoadBit(); err != nil {
		return nil, fieldErr("Context", "bounced", err)
	}
	if x.Sender, err = p.LoadAddress(); err != nil {
		return nil, fieldErr("Context", "sender", err)
	}
	if x.Value, err = p.LoadBigInt(257); err != nil {
		return nil, fieldErr("Context", "value", err)
	}
	if x.Raw, err = p.LoadRef(); err != nil {
		return nil, fieldErr("Context", "raw", err)
	}
	*s = *p
	return x, nil
}

// SendParameters describes an outgoing message.
type SendParameters struct {
	Bounce bool
	To     *tvmcell.Address
	Value  *big.Int // int257
	Mode   *big.Int // int257
	Body   *tvmcell.Cell // optional
	Code   *tvmcell.Cell // optional
	Data   *tvmcell.Cell // optional
}

// Store writes the parameters. Body, Code and Data use the optional
// reference convention, so at most three references are taken.
func (x *SendParameters) Store(b *tvmcell.Builder) error {
	if x.To == nil {
		return fieldErr("SendParameters", "to", ErrMissingField)
	}
	if err := b.StoreBit(x.Bounce); err != nil {
		return fieldErr("SendParameters", "bounce", err)
	}
	if err := b.StoreAddress(x.To); err != nil {
		return fieldErr("SendParameters", "to", err)
	}
	if err := b.StoreBigInt(x.Value, 257); err != nil {
		return fieldErr("SendParameters", "value", err)
	}
	if err := b.StoreBigInt(x.Mode, 257); err != nil {
		return fieldErr("SendParameters", "mode", err)
	}
	if err := b.StoreMaybeRef(tvmcell.MaybeOf(x.Body)); err != nil {
		return fieldErr("SendParameters", "body", err)
	}
	if err := b.StoreMaybeRef(tvmcell.MaybeOf(x.Code)); err != nil {
		return fieldErr("SendParameters", "code", err)
	}
	return fieldErr("SendParameters", "data", b.StoreMaybeRef(tvmcell.MaybeOf(x.Data)))
}

// LoadSendParameters reads SendParameters. On failure the slice is left
// unchanged.
func LoadSendParameters(s *tvmcell.Slice) (*SendParameters, error) {
	p := s.Clone()
	x := &SendParameters{}
	var err error
	if x.Bounce, err = p.LoadBit(); err != nil {
		return nil, fieldErr("SendParameters", "bounce", err)
	}
	if x.To, err = p.LoadAddress(); err != nil {
		return nil, fieldErr("SendParameters", "to", err)
	}
	if x.Value, err = p.LoadBigInt(257); err != nil {
		return nil, fieldErr("SendParameters", "value", err)
	}
	if x.Mode, err = p.LoadBigInt(257); err != nil {
		return nil, fieldErr("SendParameters", "mode", err)
	}
	for _, f := range []struct {
		name string
		dst  **tvmcell.Cell
	}{{"body", &x.Body}, {"code", &x.Code}, {"data", &x.Data}} {
		m, err := p.LoadMaybeRef()
		if err != nil {
			return nil, fieldErr("SendParameters", f.name, err)
		}
		*f.dst = m.OrElse(nil)
	}
	*s = *p
	return x, nil
}

// MyMsgBody is a sample message: a 257-bit integer and a string stored in a
// referenced snake cell.
type MyMsgBody struct {
	X *big.Int
	Y string
}

// Store writes X inline and Y as a referenced string.
func (x *MyMsgBody) Store(b *tvmcell.Builder) error {
	if err := b.StoreBigInt(x.X, 257); err != nil {
		return fieldErr("MyMsgBody", "x", err)
	}
	return fieldErr("MyMsgBody", "y", b.StoreStringRefTail(x.Y))
}

// LoadMyMsgBody reads a MyMsgBody. On failure the slice is left unchanged.
func LoadMyMsgBody(s *tvmcell.Slice) (*MyMsgBody, error) {
	p := s.Clone()
	x := &MyMsgBody{}
	var err error
	if x.X, err = p.LoadBigInt(257); err != nil {
		return nil, fieldErr("MyMsgBody", "x", err)
	}
	if x.Y, err = p.LoadStringRefTail(); err != nil {
		return nil, fieldErr("MyMsgBody", "y", err)
	}
	*s = *p
	return x, nil
}

// Storer is implemented by every binding type.
type Storer interface {
	Store(b *tvmcell.Builder) error
}

// ToCell stores v into a fresh cell.
func ToCell(v Storer) (*tvmcell.Cell, error) {
	b := tvmcell.BeginCell()
	if err := v.Store(b); err != nil {
		return nil, err
	}
	return b.EndCell()
}

// StoreRef stores v into a fresh cell and appends it to b as a reference.
func StoreRef(b *tvmcell.Builder, v Storer) error {
	if b.AvailableRefs() == 0 {
		return tvmcell.ErrTooManyRefs
	}
	c, err := ToCell(v)
	if err != nil {
		return err
	}
	return b.StoreRef(c)
}
