package loxide_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/loxide/internal/vm"
	loxide "github.com/funvibe/loxide/pkg/embed"
)

func TestEmbedAPI(t *testing.T) {
	var out bytes.Buffer
	lox := loxide.New(loxide.WithOutput(&out), loxide.WithStressGC(true))
	defer lox.Close()

	if err := lox.Set("name", "Alice"); err != nil {
		t.Fatal(err)
	}
	if err := lox.Set("score", 10); err != nil {
		t.Fatal(err)
	}

	code := `
	var greeting = "hello " + name;
	score = score * 2 + 1;
	print greeting;
	`
	if err := lox.Eval(code); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out.String() != "\"hello Alice\"\n" {
		t.Errorf("output %q", out.String())
	}

	tests := []struct {
		global string
		want   interface{}
	}{
		{"greeting", "hello Alice"},
		{"score", 21.0},
	}
	for _, tt := range tests {
		got, err := lox.Get(tt.global)
		if err != nil {
			t.Fatalf("Get(%s): %v", tt.global, err)
		}
		if got != tt.want {
			t.Errorf("%s = %#v, want %#v", tt.global, got, tt.want)
		}
	}

	names := strings.Join(lox.Globals(), ",")
	if names != "clock,greeting,name,score" {
		t.Errorf("globals %s", names)
	}
}

func TestEmbed_Marshalling(t *testing.T) {
	lox := loxide.New(loxide.WithOutput(&bytes.Buffer{}))
	defer lox.Close()

	var nilPtr *int
	three := 3
	inputs := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"uint8", uint8(7), 7.0},
		{"float32", float32(0.5), 0.5},
		{"pointer", &three, 3.0},
		{"nil pointer", nilPtr, nil},
		{"value", vm.NumberVal(9), 9.0},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			if err := lox.Set("v", tt.in); err != nil {
				t.Fatal(err)
			}
			got, err := lox.Get("v")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	if err := lox.Set("bad", []int{1}); err == nil {
		t.Error("slices have no Lox representation")
	}
	if _, err := lox.Get("clock"); err == nil {
		t.Error("native functions cannot be returned to Go")
	}
	if _, err := lox.Get("missing"); err == nil {
		t.Error("missing global should fail")
	}
}

func TestEmbed_Errors(t *testing.T) {
	var diag bytes.Buffer
	lox := loxide.New(loxide.WithOutput(&bytes.Buffer{}), loxide.WithDiagnostics(&diag))
	defer lox.Close()

	err := lox.Eval("print ;\nvar = 1;")
	if !errors.Is(err, vm.ErrCompile) {
		t.Fatalf("expected compile error, got %v", err)
	}
	for _, want := range []string{"Expect expression.", "Expect variable name."} {
		if !strings.Contains(err.Error(), want) || !strings.Contains(diag.String(), want) {
			t.Errorf("%q missing from error %q or diagnostics %q", want, err, diag.String())
		}
	}

	err = lox.Eval("print undefinedThing;")
	if !errors.Is(err, vm.ErrRuntime) {
		t.Fatalf("expected runtime error, got %v", err)
	}
}

func TestEmbed_EvalFile(t *testing.T) {
	var out bytes.Buffer
	lox := loxide.New(loxide.WithOutput(&out))
	defer lox.Close()

	path := filepath.Join(t.TempDir(), "script.lox")
	if err := os.WriteFile(path, []byte("print 2 + 2;"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := lox.EvalFile(path); err != nil {
		t.Fatal(err)
	}
	if out.String() != "4\n" {
		t.Errorf("output %q", out.String())
	}
	if err := lox.EvalFile(filepath.Join(t.TempDir(), "none.lox")); err == nil {
		t.Error("missing file should fail")
	}
}
