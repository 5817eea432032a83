package transport

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

type timeoutTransport struct {
	Transport
	timeout time.Duration
	// busy is 1 while a command runs on the device, abandoned ones included
	busy int32
}

// WithTimeout bounds every command of t. A command that does not complete in
// time is abandoned and reported as a KindTimeout error; the caller's buffer
// is only written when the command completed. Until an abandoned command
// returns, further commands fail at once with ErrBusy.
func WithTimeout(t Transport, timeout time.Duration) Transport {
	if timeout <= 0 {
		return t
	}
	return &timeoutTransport{Transport: t, timeout: timeout}
}

func (t *timeoutTransport) SendCommand(ctx context.Context, cmd Command, sel int, buf []byte) error {
	if !atomic.CompareAndSwapInt32(&t.busy, 0, 1) {
		return NewError(KindTimeout, cmd, ErrBusy)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	private := make([]byte, len(buf))
	done := make(chan error, 1)
	go func() {
		err := t.Transport.SendCommand(ctx, cmd, sel, private)
		atomic.StoreInt32(&t.busy, 0)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			copy(buf, private)
		}
		return err
	case <-ctx.Done():
		log.WithFields(log.Fields{"command": cmd.String(), "timeout": t.timeout}).Warning("Device command timed out")
		return NewError(KindTimeout, cmd, ErrTimeout)
	}
}
