package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Jedanoski/claude-coder/internal/config"
	"github.com/Jedanoski/claude-coder/internal/llm"
	"github.com/Jedanoski/claude-coder/internal/logging"
	"github.com/Jedanoski/claude-coder/internal/stream"
	"github.com/Jedanoski/claude-coder/internal/tools"
)

var log = logging.Get()

type flags struct {
	configPath string
	model      string
	prompt     string
	stdin      bool
	nvimAddr   string
	reject     bool
}

func parseFlags() *flags {
	f := &flags{}
	pflag.StringVarP(&f.configPath, "config", "c", "", "Path to config file (default: ~/.config/coder/config.json).")
	pflag.StringVarP(&f.model, "model", "m", "", "Model to request (default: from config).")
	pflag.StringVarP(&f.prompt, "prompt", "p", "", "Prompt to send to the model API.")
	pflag.BoolVar(&f.stdin, "stdin", false, "Read a model output stream from stdin instead of calling the API.")
	pflag.StringVar(&f.nvimAddr, "nvim", "", "Apply edits to buffers in the Neovim instance at this address.")
	pflag.BoolVar(&f.reject, "reject", false, "Parse and preview edits but discard them instead of saving.")

	pflag.Usage = func() {
		fmt.Println("Usage: coder [flags]")
		fmt.Println("\nRecognize tool invocations in a model output stream and apply file edits.")
		fmt.Println("\nExample: cat transcript.txt | coder --stdin")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	return f
}

func main() {
	f := parseFlags()
	defer log.Close()

	if err := run(f); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(f *flags) error {
	ctx := context.Background()

	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		// Stdin mode works without credentials; use built-in defaults.
		if !f.stdin || (!errors.Is(err, config.ErrNoConfig) && !errors.Is(err, config.ErrNoAPIKey)) {
			return err
		}
		threshold, interval, preview := stream.DefaultUpdateThreshold, 50, true
		cfg = &config.Config{
			UpdateThreshold:    &threshold,
			CoalesceIntervalMS: &interval,
			Preview:            &preview,
		}
	}

	reg := tools.Default()
	parser := stream.NewParser(reg, *cfg.UpdateThreshold)
	disp := newDispatcher(ctx, cfg, f)
	defer disp.close()

	var streamed strings.Builder
	emit := func(events []stream.Event) {
		for _, e := range events {
			disp.handle(e)
		}
	}

	if f.stdin {
		reader := bufio.NewReader(os.Stdin)
		chunk := make([]byte, 4096)
		for {
			n, err := reader.Read(chunk)
			if n > 0 {
				streamed.Write(chunk[:n])
				emit(parser.Feed(string(chunk[:n])))
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("stdin: %w", err)
			}
		}
		emit(parser.End())
	} else {
		if f.prompt == "" {
			return errors.New("either --stdin or --prompt is required")
		}
		model := f.model
		if model == "" {
			model = cfg.DefaultModel
		}
		client := llm.NewClient(cfg.BaseURL, cfg.APIKey)
		messages := []llm.Message{{Role: "user", Content: f.prompt}}
		err := client.ChatStream(ctx, model, systemPrompt(reg), messages, func(ev llm.StreamEvent) {
			switch ev.Type {
			case "content":
				streamed.WriteString(ev.Content)
				emit(parser.Feed(ev.Content))
			case "error":
				log.Error("stream: %s", ev.Error)
			}
		})
		if err != nil {
			return err
		}
		emit(parser.End())
	}

	log.Info("stream complete: %d bytes, ~%d tokens", streamed.Len(), llm.EstimateTokensSimple(streamed.String()))
	return disp.finish()
}

// systemPrompt describes the XML tool grammar to the model.
func systemPrompt(reg *tools.Registry) string {
	prompt := "You are a skilled software developer. Invoke tools using XML tags: " +
		"<tool_name><param>value</param></tool_name>. Available tools:\n"
	for _, name := range reg.Names() {
		spec, _ := reg.Spec(name)
		prompt += fmt.Sprintf("- %s: %s\n", name, spec.Description)
	}
	prompt += "\nFor edit_file, the diff parameter holds SEARCH/REPLACE blocks:\n" +
		"SEARCH\n<original lines>\n=======\n<replacement lines>\nREPLACE\n"
	return prompt
}
