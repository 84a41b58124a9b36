package cubescript

import (
	"fmt"
	"strings"

	"github.com/OctaForge/libcubescript-sub000/internal/runeio"
)

// defaultVarPrinter is the PRINT opcode's default var-printer (spec
// §6.3): `name = value`, with the value rendered through
// runeio.WriteANSIString so control characters in a STRING var's value
// display as caret-escapes instead of corrupting the terminal. A STRING
// value containing `"` is printed in `[...]` form.
// Grounded on the teacher's core.go logging conventions, generalized
// from a fixed log line to a per-var display hook overridable via
// WithVarPrinter.
func defaultVarPrinter(th *Thread, id Ident) {
	out := th.state.out
	switch v := id.(type) {
	case *IntVar:
		fmt.Fprintf(out, "%s = %d\n", v.Name(), v.Value)
	case *FloatVar:
		fmt.Fprintf(out, "%s = %s\n", v.Name(), formatFloat(v.Value))
	case *StringVar:
		s := v.Value.Bytes()
		if strings.ContainsRune(s, '"') {
			fmt.Fprintf(out, "%s = [", v.Name())
			runeio.WriteANSIString(out, s)
			fmt.Fprintln(out, "]")
		} else {
			fmt.Fprintf(out, "%s = ", v.Name())
			runeio.WriteANSIString(out, s)
			fmt.Fprintln(out)
		}
	default:
		fmt.Fprintf(out, "%s = %s\n", id.Name(), th.readIdent(id).AsString())
	}
	out.Flush()
}

// DumpIdents writes one line per defined identifier to out, in table
// order: index, kind, name, and current value where applicable. Intended
// for embedder debug tooling, grounded on the teacher's dumper.go (a
// flat "dump everything known" pass over FIRST's word table).
func DumpIdents(in *Interp, th *Thread) string {
	t := in.state.idents
	out := ""
	for i := 0; i < t.Len(); i++ {
		id := t.At(i)
		if id == nil {
			continue
		}
		out += fmt.Sprintf("%4d %-8s %-20s", i, kindName(id.Kind()), id.Name())
		switch v := id.(type) {
		case *IntVar:
			out += fmt.Sprintf(" = %d", v.Value)
		case *FloatVar:
			out += fmt.Sprintf(" = %s", formatFloat(v.Value))
		case *StringVar:
			out += fmt.Sprintf(" = %q", v.Value.Bytes())
		case *Alias:
			out += fmt.Sprintf(" = %q", v.value.AsString())
		}
		out += "\n"
	}
	return out
}

func kindName(k IdentKind) string {
	switch k {
	case KindIntVar:
		return "int"
	case KindFloatVar:
		return "float"
	case KindStringVar:
		return "string"
	case KindAlias:
		return "alias"
	case KindCommand:
		return "command"
	case KindBuiltin:
		return "builtin"
	default:
		return "?"
	}
}

// DumpCode renders code's raw instruction words as a sequence of
// "opcode(ret) data" entries, for debug tooling.
func DumpCode(code *Code) string {
	out := ""
	words := code.Words()
	for i := 0; i < len(words); i++ {
		in := decodeInstr(words[i])
		out += fmt.Sprintf("%4d  %-14s ret=%d data=%d\n", i, opcodeName(in.op), in.ret, in.data)
	}
	return out
}

var opcodeNames = [...]string{
	OpStart: "START", OpOffset: "OFFSET", OpNull: "NULL", OpTrue: "TRUE",
	OpFalse: "FALSE", OpNot: "NOT", OpPop: "POP", OpEnter: "ENTER",
	OpEnterResult: "ENTER_RESULT", OpExit: "EXIT", OpResult: "RESULT",
	OpResultArg: "RESULT_ARG", OpForce: "FORCE", OpDup: "DUP", OpVal: "VAL",
	OpValInt: "VAL_INT", OpBlock: "BLOCK", OpEmpty: "EMPTY",
	OpCompile: "COMPILE", OpCond: "COND", OpIdent: "IDENT",
	OpIdentArg: "IDENT_ARG", OpIdentU: "IDENT_U", OpLookup: "LOOKUP",
	OpLookupArg: "LOOKUP_ARG", OpLookupU: "LOOKUP_U", OpSVar: "SVAR",
	OpIVar: "IVAR", OpFVar: "FVAR", OpSVar1: "SVAR1", OpFVar1: "FVAR1",
	OpIVar1: "IVAR1", OpIVar2: "IVAR2", OpIVar3: "IVAR3", OpPrint: "PRINT",
	OpAlias: "ALIAS", OpAliasArg: "ALIAS_ARG", OpAliasU: "ALIAS_U",
	OpLocal: "LOCAL", OpDo: "DO", OpDoArgs: "DO_ARGS", OpJump: "JUMP",
	OpJumpB: "JUMP_B", OpJumpResult: "JUMP_RESULT", OpBreak: "BREAK",
	OpContinue: "CONTINUE", OpConc: "CONC", OpConcW: "CONC_W",
	OpConcM: "CONC_M", OpCom: "COM", OpComV: "COM_V", OpComC: "COM_C",
	OpCall: "CALL", OpCallArg: "CALL_ARG", OpCallU: "CALL_U",
}

func opcodeName(op Opcode) string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}
