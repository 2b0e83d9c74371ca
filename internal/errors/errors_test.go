package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "lens error",
			code:    CodeUnknownField,
			wantMsg: "Key lens names an unknown field",
			wantCat: CategoryLens,
		},
		{
			name:    "batch error",
			code:    CodeBatchPanic,
			wantMsg: "Batch callback panicked",
			wantCat: CategoryBatch,
		},
		{
			name:    "config error",
			code:    CodeConfigParse,
			wantMsg: "Invalid JSON in configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeUnknownField).WithSubject("User.Nmae").Wrap(io.EOF)
	want := "E101: Key lens names an unknown field (User.Nmae): EOF"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := Newf(CategoryCLI, "missing %s", "state")
	if got := plain.Error(); got != "missing state" {
		t.Errorf("Error() = %q, want %q", got, "missing state")
	}
}

func TestUnwrapAndIs(t *testing.T) {
	err := New(CodeBatchPanic).Wrap(io.ErrUnexpectedEOF)

	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should see the wrapped cause")
	}
	if !stderrors.Is(err, New(CodeBatchPanic)) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New(CodeBindDecode)) {
		t.Error("errors.Is should not match a different code")
	}

	var ae *AtomError
	if !stderrors.As(fmtWrap(err), &ae) || ae.Code != CodeBatchPanic {
		t.Errorf("errors.As = %v, want code %s", ae, CodeBatchPanic)
	}
}

func fmtWrap(err error) error {
	return stderrors.Join(err)
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeConfigRead) != nil {
		t.Error("FromError(nil) should be nil")
	}

	ae := New(CodeConfigInvalid)
	if FromError(ae, CodeConfigRead) != ae {
		t.Error("FromError should return an existing AtomError unchanged")
	}

	wrapped := FromError(io.EOF, CodeConfigRead)
	if wrapped.Code != CodeConfigRead || wrapped.Wrapped != io.EOF {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestFormat(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	err := New(CodeFieldType).
		WithSubject("Profile.Age").
		WithSuggestion("use lens.Key[Profile, int]").
		Wrap(io.EOF)

	out := err.Format()
	for _, want := range []string{
		"ERROR E102: Key lens field type mismatch",
		"Profile.Age",
		"Cause: EOF",
		"Hint: use lens.Key[Profile, int]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeBindDecode).WithSubject("/watch/user").Wrap(io.EOF)

	var got map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if got["code"] != CodeBindDecode || got["category"] != string(CategoryBinding) {
		t.Errorf("unexpected payload %v", got)
	}
	if got["cause"] != "EOF" {
		t.Errorf("cause = %q, want EOF", got["cause"])
	}
}

func TestPrintError(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var buf bytes.Buffer
	PrintError(&buf, New(CodeCLIUsage))
	if !strings.Contains(buf.String(), "E601") {
		t.Errorf("PrintError output = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, io.EOF)
	if !strings.Contains(buf.String(), "EOF") {
		t.Errorf("PrintError output = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if len(lines) < 3 {
		t.Errorf("expected wrapping, got %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}
