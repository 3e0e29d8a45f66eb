package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/aiist007/JSpeak/internal/observability"
	"github.com/aiist007/JSpeak/internal/protocol"
	"github.com/aiist007/JSpeak/internal/service"
)

// A base64 second of 16kHz PCM16 is ~43KB; leave generous headroom for
// clients that batch multiple seconds per push.
const maxLineBytes = 16 * 1024 * 1024

// StdioServer is the primary transport: one JSON request per stdin line, one
// JSON response per stdout line. Logs go to stderr so stdout stays clean.
type StdioServer struct {
	svc    *service.Service
	in     io.Reader
	out    io.Writer
	logger zerolog.Logger
}

// NewStdioServer creates a stdio transport over the given reader/writer pair
func NewStdioServer(svc *service.Service, in io.Reader, out io.Writer) *StdioServer {
	return &StdioServer{
		svc:    svc,
		in:     in,
		out:    out,
		logger: observability.GetLogger().With().Str("component", "stdio").Logger(),
	}
}

// Run reads requests until EOF or context cancellation. Malformed lines get
// an error response on an empty id; they never kill the loop.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp protocol.Response
		req, err := protocol.ParseRequest(line)
		if err != nil {
			resp = protocol.Err("", fmt.Sprintf("Bad request: %v", err))
		} else {
			resp = s.svc.Handle(ctx, req)
		}

		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read failed: %w", err)
	}
	s.logger.Info().Msg("Input closed, stdio transport stopping")
	return nil
}
