package tools

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_OK(t *testing.T) {
	r := Default()
	err := r.Validate("write_to_file", map[string]string{"path": "a.ts", "content": "X"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	r := Default()
	err := r.Validate("write_to_file", map[string]string{"path": "a.ts"})
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != "content" {
		t.Errorf("Missing = %v, want [content]", verr.Missing)
	}
}

func TestValidate_UnknownParam(t *testing.T) {
	r := Default()
	err := r.Validate("execute_command", map[string]string{"command": "ls", "shell": "bash"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "shell") {
		t.Errorf("error = %q, want mention of 'shell'", err.Error())
	}
}

func TestValidate_OptionalAllowed(t *testing.T) {
	r := Default()
	err := r.Validate("list_files", map[string]string{"path": ".", "recursive": "true"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownTool(t *testing.T) {
	r := Default()
	err := r.Validate("rm_rf", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Unregistered {
		t.Fatalf("error = %#v, want Unregistered ValidationError", err)
	}
	if !strings.Contains(err.Error(), "not a registered tool") {
		t.Errorf("error = %q, want a diagnosis", err.Error())
	}
}

func TestDefault_ResearchTools(t *testing.T) {
	r := Default()
	for _, name := range []string{"list_code_definition_names", "web_search", "url_screenshot", "ask_consultant"} {
		if !r.Has(name) {
			t.Errorf("%s should be registered", name)
		}
	}

	if err := r.Validate("web_search", map[string]string{"searchQuery": "go generics"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := r.Validate("web_search", map[string]string{"searchQuery": "q", "baseLink": "https://go.dev"}); err != nil {
		t.Errorf("baseLink is optional: %v", err)
	}
	err := r.Validate("web_search", map[string]string{"baseLink": "https://go.dev"})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Missing) != 1 || verr.Missing[0] != "searchQuery" {
		t.Errorf("err = %v, want missing searchQuery", err)
	}
}

func TestRegistry_Has(t *testing.T) {
	r := Default()
	if !r.Has("edit_file") {
		t.Error("edit_file should be registered")
	}
	if r.Has("thinking") {
		t.Error("thinking is not a tool")
	}
}
