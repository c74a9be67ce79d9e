// Package jsonstream provides a pull-based JSON token reader.
//
// The payment protocol decoders walk their payloads one structural token at
// a time so they can skip unrecognised fields without materialising a
// document tree. The reader accepts // and /* */ comments, which some
// payment-sheet implementations emit; they are consumed silently and never
// surfaced to callers.
package jsonstream

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
)

// Kind identifies the type of a structural token.
type Kind int

const (
	KindObjectStart Kind = iota + 1
	KindObjectEnd
	KindArrayStart
	KindArrayEnd
	KindName
	KindString
	KindNumber
	KindBool
	KindNull
)

// String returns a human-readable name for the token kind.
func (k Kind) String() string {
	switch k {
	case KindObjectStart:
		return "object start"
	case KindObjectEnd:
		return "object end"
	case KindArrayStart:
		return "array start"
	case KindArrayEnd:
		return "array end"
	case KindName:
		return "property name"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Token is a single structural event produced by the reader.
type Token struct {
	Kind Kind
	// Str holds the text of Name, String and Number tokens.
	Str string
	// Bool holds the value of Bool tokens.
	Bool bool
}

// ErrUnexpectedEOF reports input that ended before the current value was
// complete.
var ErrUnexpectedEOF = errors.New("unexpected end of file")

// SyntaxError reports structurally invalid JSON text.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %s", e.Offset, e.Msg)
}

// TypeError reports a value whose type did not match what the caller asked
// the reader to produce.
type TypeError struct {
	Want string
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Want, e.Got)
}

const (
	expectValue = iota
	expectName
	expectNext // ',' or the closing bracket of the current container
)

// Reader walks JSON text token by token in a single pass.
type Reader struct {
	src    string
	pos    int
	stack  []byte // '{' or '[' per open container
	expect int
}

// NewReader returns a reader positioned before the first token of src.
func NewReader(src string) *Reader {
	return &Reader{src: src, expect: expectValue}
}

// Next returns the next structural token. It returns io.EOF once the
// top-level value has been fully consumed and only whitespace or comments
// remain, and ErrUnexpectedEOF if input runs out mid-value.
func (r *Reader) Next() (Token, error) {
	for {
		if err := r.skipSpace(); err != nil {
			return Token{}, err
		}
		if r.pos >= len(r.src) {
			if len(r.stack) == 0 && r.expect == expectNext {
				return Token{}, io.EOF
			}
			return Token{}, ErrUnexpectedEOF
		}

		c := r.src[r.pos]
		switch r.expect {
		case expectNext:
			if len(r.stack) == 0 {
				return Token{}, r.syntaxf("unexpected data after top-level value")
			}
			top := r.stack[len(r.stack)-1]
			switch {
			case c == ',':
				r.pos++
				if top == '{' {
					r.expect = expectName
				} else {
					r.expect = expectValue
				}
			case c == '}' && top == '{':
				return r.closeContainer(KindObjectEnd), nil
			case c == ']' && top == '[':
				return r.closeContainer(KindArrayEnd), nil
			default:
				return Token{}, r.syntaxf("expected ',' or %q", closerFor(top))
			}

		case expectName:
			switch c {
			case '}':
				return r.closeContainer(KindObjectEnd), nil
			case '"':
				name, err := r.readStringLiteral()
				if err != nil {
					return Token{}, err
				}
				if err := r.skipSpace(); err != nil {
					return Token{}, err
				}
				if r.pos >= len(r.src) {
					return Token{}, ErrUnexpectedEOF
				}
				if r.src[r.pos] != ':' {
					return Token{}, r.syntaxf("expected ':' after object key")
				}
				r.pos++
				r.expect = expectValue
				return Token{Kind: KindName, Str: name}, nil
			default:
				return Token{}, r.syntaxf("expected object key")
			}

		default: // expectValue
			switch {
			case c == '{':
				r.pos++
				r.stack = append(r.stack, '{')
				r.expect = expectName
				return Token{Kind: KindObjectStart}, nil
			case c == '[':
				r.pos++
				r.stack = append(r.stack, '[')
				r.expect = expectValue
				return Token{Kind: KindArrayStart}, nil
			case c == ']':
				if len(r.stack) > 0 && r.stack[len(r.stack)-1] == '[' {
					return r.closeContainer(KindArrayEnd), nil
				}
				return Token{}, r.syntaxf("unexpected ']'")
			case c == '"':
				s, err := r.readStringLiteral()
				if err != nil {
					return Token{}, err
				}
				r.expect = expectNext
				return Token{Kind: KindString, Str: s}, nil
			case c == 't' || c == 'f':
				v, err := r.readKeyword()
				if err != nil {
					return Token{}, err
				}
				r.expect = expectNext
				return Token{Kind: KindBool, Bool: v == "true"}, nil
			case c == 'n':
				if _, err := r.readKeyword(); err != nil {
					return Token{}, err
				}
				r.expect = expectNext
				return Token{Kind: KindNull}, nil
			case c == '-' || (c >= '0' && c <= '9'):
				num, err := r.readNumberLiteral()
				if err != nil {
					return Token{}, err
				}
				r.expect = expectNext
				return Token{Kind: KindNumber, Str: num}, nil
			default:
				return Token{}, r.syntaxf("unexpected character %q", c)
			}
		}
	}
}

// ReadString consumes the next value, which must be a string or null. The
// bool result reports whether a string was present (false means JSON null).
func (r *Reader) ReadString() (string, bool, error) {
	tok, err := r.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, ErrUnexpectedEOF
		}
		return "", false, err
	}
	switch tok.Kind {
	case KindString:
		return tok.Str, true, nil
	case KindNull:
		return "", false, nil
	default:
		return "", false, &TypeError{Want: "string", Got: tok.Kind}
	}
}

// SkipValue consumes exactly one full value (scalar, object or array) and
// discards it. Mismatched bracket nesting surfaces as a decode error.
func (r *Reader) SkipValue() error {
	depth := 0
	for {
		tok, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrUnexpectedEOF
			}
			return err
		}
		switch tok.Kind {
		case KindObjectStart, KindArrayStart:
			depth++
		case KindObjectEnd, KindArrayEnd:
			depth--
		case KindName:
			continue
		}
		if depth == 0 {
			return nil
		}
	}
}

func (r *Reader) closeContainer(kind Kind) Token {
	r.pos++
	r.stack = r.stack[:len(r.stack)-1]
	r.expect = expectNext
	return Token{Kind: kind}
}

func closerFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

func (r *Reader) syntaxf(format string, args ...any) error {
	return &SyntaxError{Offset: r.pos, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace consumes whitespace and comments.
func (r *Reader) skipSpace() error {
	for r.pos < len(r.src) {
		switch c := r.src[r.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		case c == '/':
			if r.pos+1 >= len(r.src) {
				return r.syntaxf("unexpected character '/'")
			}
			switch r.src[r.pos+1] {
			case '/':
				end := strings.IndexByte(r.src[r.pos:], '\n')
				if end < 0 {
					r.pos = len(r.src)
				} else {
					r.pos += end + 1
				}
			case '*':
				end := strings.Index(r.src[r.pos+2:], "*/")
				if end < 0 {
					r.pos = len(r.src)
					return ErrUnexpectedEOF
				}
				r.pos += 2 + end + 2
			default:
				return r.syntaxf("unexpected character '/'")
			}
		default:
			return nil
		}
	}
	return nil
}

// readStringLiteral consumes a double-quoted string starting at the current
// position and returns its unescaped contents.
func (r *Reader) readStringLiteral() (string, error) {
	r.pos++ // opening quote
	var sb strings.Builder
	for {
		if r.pos >= len(r.src) {
			return "", ErrUnexpectedEOF
		}
		c := r.src[r.pos]
		switch {
		case c == '"':
			r.pos++
			return sb.String(), nil
		case c == '\\':
			r.pos++
			if r.pos >= len(r.src) {
				return "", ErrUnexpectedEOF
			}
			esc := r.src[r.pos]
			r.pos++
			switch esc {
			case '"', '\\', '/':
				sb.WriteByte(esc)
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				cp, err := r.readHexRune()
				if err != nil {
					return "", err
				}
				if utf16.IsSurrogate(cp) && r.pos+1 < len(r.src) && r.src[r.pos] == '\\' && r.src[r.pos+1] == 'u' {
					r.pos += 2
					low, err := r.readHexRune()
					if err != nil {
						return "", err
					}
					cp = utf16.DecodeRune(cp, low)
				}
				// WriteRune encodes unpaired surrogates as U+FFFD.
				sb.WriteRune(cp)
			default:
				return "", r.syntaxf("invalid escape sequence '\\%c'", esc)
			}
		case c < 0x20:
			return "", r.syntaxf("unescaped control character in string")
		default:
			sb.WriteByte(c)
			r.pos++
		}
	}
}

func (r *Reader) readHexRune() (rune, error) {
	if r.pos+4 > len(r.src) {
		return 0, ErrUnexpectedEOF
	}
	var cp rune
	for i := 0; i < 4; i++ {
		c := r.src[r.pos+i]
		var v rune
		switch {
		case c >= '0' && c <= '9':
			v = rune(c - '0')
		case c >= 'a' && c <= 'f':
			v = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = rune(c-'A') + 10
		default:
			return 0, r.syntaxf("invalid unicode escape")
		}
		cp = cp<<4 | v
	}
	r.pos += 4
	return cp, nil
}

func (r *Reader) readKeyword() (string, error) {
	for _, kw := range []string{"true", "false", "null"} {
		if strings.HasPrefix(r.src[r.pos:], kw) {
			r.pos += len(kw)
			return kw, nil
		}
	}
	return "", r.syntaxf("invalid literal")
}

func (r *Reader) readNumberLiteral() (string, error) {
	start := r.pos
	if r.src[r.pos] == '-' {
		r.pos++
	}
	digits := 0
	for r.pos < len(r.src) && r.src[r.pos] >= '0' && r.src[r.pos] <= '9' {
		r.pos++
		digits++
	}
	if digits == 0 {
		return "", r.syntaxf("invalid number")
	}
	if r.pos < len(r.src) && r.src[r.pos] == '.' {
		r.pos++
		frac := 0
		for r.pos < len(r.src) && r.src[r.pos] >= '0' && r.src[r.pos] <= '9' {
			r.pos++
			frac++
		}
		if frac == 0 {
			return "", r.syntaxf("invalid number")
		}
	}
	if r.pos < len(r.src) && (r.src[r.pos] == 'e' || r.src[r.pos] == 'E') {
		r.pos++
		if r.pos < len(r.src) && (r.src[r.pos] == '+' || r.src[r.pos] == '-') {
			r.pos++
		}
		exp := 0
		for r.pos < len(r.src) && r.src[r.pos] >= '0' && r.src[r.pos] <= '9' {
			r.pos++
			exp++
		}
		if exp == 0 {
			return "", r.syntaxf("invalid number")
		}
	}
	return r.src[start:r.pos], nil
}
