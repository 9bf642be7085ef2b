package buffer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neovim/go-client/nvim"
)

// Nvim is a TextBuffer backed by a buffer in a running Neovim instance,
// addressed over its RPC socket.
type Nvim struct {
	v   *nvim.Nvim
	buf nvim.Buffer
}

// DialNvim connects to the Neovim instance at addr (defaults to
// $NVIM_LISTEN_ADDRESS) and opens path in a buffer.
func DialNvim(addr, path string) (*Nvim, error) {
	if addr == "" {
		addr = os.Getenv("NVIM_LISTEN_ADDRESS")
	}
	if addr == "" {
		return nil, fmt.Errorf("no nvim address: set NVIM_LISTEN_ADDRESS or pass --nvim")
	}

	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to nvim at %s: %w", addr, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		v.Close()
		return nil, err
	}
	if err := v.Command(fmt.Sprintf("edit %s", absPath)); err != nil {
		v.Close()
		return nil, fmt.Errorf("open %s in nvim: %w", path, err)
	}
	buf, err := v.CurrentBuffer()
	if err != nil {
		v.Close()
		return nil, err
	}

	return &Nvim{v: v, buf: buf}, nil
}

// Close disconnects from Neovim.
func (n *Nvim) Close() {
	if n.v != nil {
		n.v.Close()
	}
}

func (n *Nvim) Read(ctx context.Context) (string, error) {
	lines, err := n.v.BufferLines(n.buf, 0, -1, true)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n") + "\n", nil
}

func (n *Nvim) Write(ctx context.Context, content string) error {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	byteLines := make([][]byte, len(lines))
	for i, l := range lines {
		byteLines[i] = []byte(l)
	}
	return n.v.SetBufferLines(n.buf, 0, -1, true, byteLines)
}

func (n *Nvim) Persist(ctx context.Context) error {
	b := n.v.NewBatch()
	b.SetCurrentBuffer(n.buf)
	b.Command("write!")
	return b.Execute()
}

func (n *Nvim) Revert(ctx context.Context, snapshot string) error {
	if err := n.Write(ctx, snapshot); err != nil {
		return err
	}
	return n.Persist(ctx)
}
