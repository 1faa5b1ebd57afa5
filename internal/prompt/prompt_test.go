package prompt

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  root@example.com \n"))
	var out bytes.Buffer
	got, err := Text(in, "Email", &out)
	if err != nil || got != "root@example.com" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Email\n> " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := Text(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = Text(bufio.NewReader(strings.NewReader("")), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF error on empty input")
	}
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestNewPassword(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
		wantErr bool
	}{
		{"match", []string{"s3cret", "s3cret"}, "s3cret", false},
		{"mismatch", []string{"s3cret", "other"}, "", true},
		{"empty", []string{""}, "", true},
		{"read error", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPasswords(t, tt.answers...)
			var out bytes.Buffer
			got, err := NewPassword(&out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewPassword_Mismatch(t *testing.T) {
	stubPasswords(t, "a", "b")
	var out bytes.Buffer
	if _, err := NewPassword(&out); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("want ErrPasswordMismatch, got %v", err)
	}
}
