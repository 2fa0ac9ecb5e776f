package api

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type sessionRecord struct {
	SessionID uuid.UUID `json:"session_id"`
}

type tokenRecord struct {
	Token string `json:"token"`
}

type doneRecord struct {
	Done           bool  `json:"done"`
	ResponseTimeMS int64 `json:"response_time_ms"`
}

type errorRecord struct {
	Error string `json:"error"`
}

// recordWriter writes "data: <json>" records, flushing after every write so
// each fragment reaches the client on its own.
type recordWriter struct {
	w        *bufio.Writer
	fragment int
}

func (rw *recordWriter) write(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	line := make([]byte, 0, len(payload)+8)
	line = append(line, "data: "...)
	line = append(line, payload...)
	line = append(line, "\n\n"...)

	size := rw.fragment
	if size <= 0 {
		size = len(line)
	}

	for len(line) > 0 {
		n := min(size, len(line))
		if _, err := rw.w.Write(line[:n]); err != nil {
			return err
		}
		if err := rw.w.Flush(); err != nil {
			return err
		}
		line = line[n:]
	}

	return nil
}

// replyWriter returns the body writer for one reply. It runs after the
// handler has returned, so it must not touch the fiber.Ctx.
func (s *Server) replyWriter(sessionID uuid.UUID, question string, start time.Time) fasthttp.StreamWriter {
	return func(w *bufio.Writer) {
		rw := &recordWriter{w: w, fragment: s.config.FragmentSize}
		logger := s.logger.With(zap.Stringer("session_id", sessionID))

		if err := rw.write(sessionRecord{SessionID: sessionID}); err != nil {
			logger.Debug("client went away", zap.Error(err))
			return
		}

		answer, err := s.content.Load().responder.Respond(context.Background(), question)
		if err != nil {
			logger.Error("failed to generate reply", zap.Error(err))
			_ = rw.write(errorRecord{Error: err.Error()})
			return
		}

		for _, token := range splitTokens(answer) {
			if s.config.TokenDelay > 0 {
				time.Sleep(s.config.TokenDelay)
			}
			if err := rw.write(tokenRecord{Token: token}); err != nil {
				logger.Debug("client went away", zap.Error(err))
				return
			}
		}

		elapsed := time.Since(start).Milliseconds()
		if err := rw.write(doneRecord{Done: true, ResponseTimeMS: elapsed}); err != nil {
			logger.Debug("client went away", zap.Error(err))
			return
		}

		s.sessions.record(sessionID)
		logger.Info("chat completed", zap.Int64("response_time_ms", elapsed))
	}
}
