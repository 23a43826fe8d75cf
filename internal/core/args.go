package core

import "fmt"

// Argument kinds on the wire.
const (
	ArgNumber = "n"
	ArgString = "s"
	ArgBytes  = "b"
)

// Arg is the serializable form of one positional call argument. It is used
// wherever a call leaves the process (websocket frames, the call journal).
type Arg struct {
	Kind string  `json:"k"`
	Num  float64 `json:"n,omitempty"`
	Str  string  `json:"s,omitempty"`
	Bin  []byte  `json:"b,omitempty"`
}

// EncodeArgs converts positional call arguments into their wire form.
func EncodeArgs(args []any) ([]Arg, error) {
	out := make([]Arg, 0, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case float64:
			out = append(out, Arg{Kind: ArgNumber, Num: v})
		case float32:
			out = append(out, Arg{Kind: ArgNumber, Num: float64(v)})
		case int:
			out = append(out, Arg{Kind: ArgNumber, Num: float64(v)})
		case int32:
			out = append(out, Arg{Kind: ArgNumber, Num: float64(v)})
		case int64:
			out = append(out, Arg{Kind: ArgNumber, Num: float64(v)})
		case string:
			out = append(out, Arg{Kind: ArgString, Str: v})
		case []byte:
			out = append(out, Arg{Kind: ArgBytes, Bin: v})
		default:
			return nil, fmt.Errorf("argument %d: unsupported type %T", i, a)
		}
	}
	return out, nil
}

// DecodeArgs converts wire arguments back into call arguments. Numbers come
// back as float64, matching what the native side receives.
func DecodeArgs(in []Arg) ([]any, error) {
	out := make([]any, 0, len(in))
	for i, a := range in {
		switch a.Kind {
		case ArgNumber:
			out = append(out, a.Num)
		case ArgString:
			out = append(out, a.Str)
		case ArgBytes:
			b := a.Bin
			if b == nil {
				b = []byte{}
			}
			out = append(out, b)
		default:
			return nil, fmt.Errorf("argument %d: unknown kind %q", i, a.Kind)
		}
	}
	return out, nil
}
