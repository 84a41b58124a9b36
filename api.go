package cubescript

import (
	"errors"
	"fmt"

	"github.com/OctaForge/libcubescript-sub000/internal/panicerr"
)

// NewIntVar registers a fresh integer variable (spec §3.3, §6.1).
func (in *Interp) NewIntVar(name string, min, max, initial IntValue, flags IdentFlags) (*IntVar, error) {
	v := &IntVar{identHeader: identHeader{name: name, flags: flags}, Value: initial, Min: min, Max: max}
	if err := in.state.idents.Define(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewFloatVar registers a fresh float variable.
func (in *Interp) NewFloatVar(name string, min, max, initial FloatValue, flags IdentFlags) (*FloatVar, error) {
	v := &FloatVar{identHeader: identHeader{name: name, flags: flags}, Value: initial, Min: min, Max: max}
	if err := in.state.idents.Define(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewStringVar registers a fresh string variable.
func (in *Interp) NewStringVar(name string, initial string, flags IdentFlags) (*StringVar, error) {
	v := &StringVar{identHeader: identHeader{name: name, flags: flags}, Value: in.state.pool.Intern(initial)}
	if err := in.state.idents.Define(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewCommand registers a native command under name; argspec drives how
// the compiler builds each call site's argument-pushing bytecode (spec
// §4.7.1, see argspec.go).
func (in *Interp) NewCommand(name, argspec string, fn CommandFunc) (*Command, error) {
	c := &Command{identHeader: identHeader{name: name}, Argspec: argspec, Fn: fn}
	if err := in.state.idents.Define(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewAlias registers a fresh alias bound to value.
func (in *Interp) NewAlias(name string, value Value) (*Alias, error) {
	a := &Alias{identHeader: identHeader{name: name}, value: value, initial: value}
	if err := in.state.idents.Define(a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetIdent looks up a registered identifier by name.
func (in *Interp) GetIdent(name string) (Ident, bool) {
	return in.state.idents.Lookup(name)
}

// AssignValue sets an existing alias or var's value directly, without
// going through the compiler (spec §4.9). It is an error to assign to a
// name that does not resolve to an alias or var, or to write a
// read-only var (recovered from the underlying setter's raise, the
// same propagation path scripted writes use).
func (th *Thread) AssignValue(name string, value Value) error {
	err := panicerr.Recover("cubescript", func() error {
		id, ok := th.state.idents.Lookup(name)
		if !ok {
			return fmt.Errorf("cubescript: unknown identifier %q", name)
		}
		switch v := id.(type) {
		case *Alias:
			setAlias(v, value)
		case *IntVar:
			th.setIntVar(v, value.AsInt())
		case *FloatVar:
			th.setFloatVar(v, value.AsFloat())
		case *StringVar:
			th.setStringVar(v, value.AsString())
		default:
			return fmt.Errorf("cubescript: %q is not assignable", name)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return err
}

// ResetValue clears an overridden var or alias back to its pre-override
// snapshot (spec §4.9's clear_override). For a var it is a no-op if the
// var was never overridden; an alias is always reset to the value it
// was registered with.
func (th *Thread) ResetValue(name string) error {
	id, ok := th.state.idents.Lookup(name)
	if !ok {
		return fmt.Errorf("cubescript: unknown identifier %q", name)
	}
	switch v := id.(type) {
	case *Alias:
		setAlias(v, v.initial)
	case *IntVar:
		if v.Flags().Has(FlagOverridden) {
			v.Value = v.override
			v.setFlags(v.Flags() &^ FlagOverridden)
		}
	case *FloatVar:
		if v.Flags().Has(FlagOverridden) {
			v.Value = v.override
			v.setFlags(v.Flags() &^ FlagOverridden)
		}
	case *StringVar:
		if v.Flags().Has(FlagOverridden) {
			th.state.pool.Unref(v.Value)
			v.Value = th.state.pool.Ref(v.override)
			v.setFlags(v.Flags() &^ FlagOverridden)
		}
	default:
		return fmt.Errorf("cubescript: %q is not resettable", name)
	}
	return nil
}
