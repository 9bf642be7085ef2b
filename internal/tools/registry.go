package tools

import (
	"fmt"
	"sort"
)

// Spec describes the parameter shape of one tool. Parameters are a
// JSON-schema style map so hosts can forward them to a model prompt.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
	Optional    []string
}

// WriteToFileTool writes complete content to a file for user review.
var WriteToFileTool = Spec{
	Name:        "write_to_file",
	Description: "Write complete content to a file. Creates parent directories as needed.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Relative file path (e.g., 'math.cs' or 'src/utils/helper.go')",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Complete file content",
			},
		},
		"required": []string{"path", "content"},
	},
	Required: []string{"path", "content"},
}

// EditFileTool applies search/replace blocks to an existing file.
var EditFileTool = Spec{
	Name:        "edit_file",
	Description: "Apply one or more search/replace blocks to an existing file.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Relative file path of the existing file to modify",
			},
			"diff": map[string]any{
				"type":        "string",
				"description": "SEARCH/REPLACE blocks describing the edits. An empty replacement deletes the matched region.",
			},
		},
		"required": []string{"path", "diff"},
	},
	Required: []string{"path", "diff"},
}

// ExecuteCommandTool runs a CLI command on the user's machine.
var ExecuteCommandTool = Spec{
	Name:        "execute_command",
	Description: "Execute a CLI command in the working directory.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The command to execute",
			},
		},
		"required": []string{"command"},
	},
	Required: []string{"command"},
}

// ReadFileTool returns the contents of a file.
var ReadFileTool = Spec{
	Name:        "read_file",
	Description: "Read the contents of a file.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Relative file path to read",
			},
		},
		"required": []string{"path"},
	},
	Required: []string{"path"},
}

// ListFilesTool lists files in a directory.
var ListFilesTool = Spec{
	Name:        "list_files",
	Description: "List files in a directory, optionally recursively.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory path to list",
			},
			"recursive": map[string]any{
				"type":        "string",
				"description": "'true' to list recursively",
			},
		},
		"required": []string{"path"},
	},
	Required: []string{"path"},
	Optional: []string{"recursive"},
}

// SearchFilesTool performs a regex search across files.
var SearchFilesTool = Spec{
	Name:        "search_files",
	Description: "Regex search across files in a directory with surrounding context.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to search",
			},
			"regex": map[string]any{
				"type":        "string",
				"description": "Regular expression to search for",
			},
		},
		"required": []string{"path", "regex"},
	},
	Required: []string{"path", "regex"},
}

// AttemptCompletionTool presents the final result of a task.
var AttemptCompletionTool = Spec{
	Name:        "attempt_completion",
	Description: "Present the result of the task to the user.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result": map[string]any{
				"type":        "string",
				"description": "The final result of the task",
			},
		},
		"required": []string{"result"},
	},
	Required: []string{"result"},
}

// AskFollowupQuestionTool asks the user for missing details.
var AskFollowupQuestionTool = Spec{
	Name:        "ask_followup_question",
	Description: "Ask the user a question to gather additional information.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question to ask the user",
			},
		},
		"required": []string{"question"},
	},
	Required: []string{"question"},
}

// UpsertMemoryTool updates the running task history.
var UpsertMemoryTool = Spec{
	Name:        "upsert_memory",
	Description: "Update the task history with a summary of changes in markdown.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "Complete task history content in markdown",
			},
		},
		"required": []string{"content"},
	},
	Required: []string{"content"},
}

// ListCodeDefinitionNamesTool surveys top-level source definitions.
var ListCodeDefinitionNamesTool = Spec{
	Name:        "list_code_definition_names",
	Description: "List source code definition names for files at the top level of a directory.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to survey",
			},
		},
		"required": []string{"path"},
	},
	Required: []string{"path"},
}

// WebSearchTool searches the web, optionally scoped to a starting link.
var WebSearchTool = Spec{
	Name:        "web_search",
	Description: "Search the web for information, optionally starting from a specific link.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"searchQuery": map[string]any{
				"type":        "string",
				"description": "The question to search for",
			},
			"baseLink": map[string]any{
				"type":        "string",
				"description": "Optional link to access directly",
			},
		},
		"required": []string{"searchQuery"},
	},
	Required: []string{"searchQuery"},
	Optional: []string{"baseLink"},
}

// UrlScreenshotTool captures a screenshot of a URL.
var UrlScreenshotTool = Spec{
	Name:        "url_screenshot",
	Description: "Take a screenshot of a URL.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to screenshot",
			},
		},
		"required": []string{"url"},
	},
	Required: []string{"url"},
}

// AskConsultantTool consults an expert for guidance on a hard problem.
var AskConsultantTool = Spec{
	Name:        "ask_consultant",
	Description: "Consult an expert software consultant when stuck on a bug or design question.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The question for the consultant",
			},
		},
		"required": []string{"query"},
	},
	Required: []string{"query"},
}

// ValidationError reports a schema failure for one finalized invocation.
type ValidationError struct {
	Tool         string
	Unregistered bool // the tool name itself is not in the registry
	Missing      []string
	Unknown      []string
}

func (e *ValidationError) Error() string {
	if e.Unregistered {
		return fmt.Sprintf("tool %q: not a registered tool", e.Tool)
	}
	msg := fmt.Sprintf("tool %q:", e.Tool)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(" missing required parameters %v", e.Missing)
	}
	if len(e.Unknown) > 0 {
		msg += fmt.Sprintf(" unknown parameters %v", e.Unknown)
	}
	return msg
}

// Registry maps tool names to their parameter shapes.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry creates a registry holding the given tool specs.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		r.specs[s.Name] = s
	}
	return r
}

// Default returns a registry with the full built-in tool set.
func Default() *Registry {
	return NewRegistry(
		WriteToFileTool,
		EditFileTool,
		ExecuteCommandTool,
		ReadFileTool,
		ListFilesTool,
		SearchFilesTool,
		AttemptCompletionTool,
		AskFollowupQuestionTool,
		UpsertMemoryTool,
		ListCodeDefinitionNamesTool,
		WebSearchTool,
		UrlScreenshotTool,
		AskConsultantTool,
	)
}

// Has reports whether name is a registered tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Spec returns the spec for a registered tool.
func (r *Registry) Spec(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a finalized parameter set against the tool's shape.
// Every required parameter must be present; parameters outside the
// declared set are rejected.
func (r *Registry) Validate(name string, params map[string]string) error {
	spec, ok := r.specs[name]
	if !ok {
		return &ValidationError{Tool: name, Unregistered: true}
	}

	allowed := make(map[string]bool, len(spec.Required)+len(spec.Optional))
	for _, p := range spec.Required {
		allowed[p] = true
	}
	for _, p := range spec.Optional {
		allowed[p] = true
	}

	var missing, unknown []string
	for _, p := range spec.Required {
		if _, ok := params[p]; !ok {
			missing = append(missing, p)
		}
	}
	for p := range params {
		if !allowed[p] {
			unknown = append(unknown, p)
		}
	}
	sort.Strings(unknown)

	if len(missing) > 0 || len(unknown) > 0 {
		return &ValidationError{Tool: name, Missing: missing, Unknown: unknown}
	}
	return nil
}
