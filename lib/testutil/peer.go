// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/bureau-foundation/debugbridge/lib/netutil"
	"github.com/bureau-foundation/debugbridge/lib/nulframe"
)

// Peer is the remote end of a bridge session, driven by a test.
type Peer struct {
	t          testing.TB
	connection *net.TCPConn
	decoder    nulframe.Decoder
	frames     []string
	buffer     []byte
}

// DialPeer connects to address and returns a Peer. A refused dial is
// retried for a few seconds, since a bridge between sessions is briefly
// not listening. The connection is closed when the test completes if
// the test has not closed it already.
func DialPeer(t testing.TB, address string) *Peer {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second) //nolint:realclock test dial retry
	var connection net.Conn
	for {
		var err error
		connection, err = net.DialTimeout("tcp", address, 5*time.Second)
		if err == nil {
			break
		}
		if !netutil.IsRefused(err) || time.Now().After(deadline) { //nolint:realclock test dial retry
			t.Fatalf("DialPeer %s: %v", address, err)
		}
		time.Sleep(5 * time.Millisecond) //nolint:realclock test dial retry
	}
	peer := &Peer{
		t:          t,
		connection: connection.(*net.TCPConn),
		buffer:     make([]byte, 4096),
	}
	t.Cleanup(func() { peer.connection.Close() })
	return peer
}

// Send writes text as one framed message.
func (p *Peer) Send(text string) {
	p.t.Helper()
	p.SendRaw(nulframe.Encode(text))
}

// SendRaw writes data exactly as given, in a single write.
func (p *Peer) SendRaw(data []byte) {
	p.t.Helper()
	if _, err := p.connection.Write(data); err != nil {
		p.t.Fatalf("peer write: %v", err)
	}
}

// ReadFrame returns the next frame from the bridge, failing the test if
// none arrives within timeout or the connection closes first.
func (p *Peer) ReadFrame(timeout time.Duration) string {
	p.t.Helper()
	frame, err := p.readFrame(timeout)
	if err != nil {
		p.t.Fatalf("peer read: %v", err)
	}
	return frame
}

// ReadRaw returns the next bytes the bridge writes, exactly as they
// arrive, bypassing the frame decoder.
func (p *Peer) ReadRaw(timeout time.Duration) []byte {
	p.t.Helper()
	p.connection.SetReadDeadline(time.Now().Add(timeout)) //nolint:realclock OS socket deadline
	count, err := p.connection.Read(p.buffer)
	if err != nil {
		p.t.Fatalf("peer raw read: %v", err)
	}
	return append([]byte(nil), p.buffer[:count]...)
}

// ReadUntilClosed collects every frame the bridge sends until it closes
// the connection, failing the test if that takes longer than timeout.
func (p *Peer) ReadUntilClosed(timeout time.Duration) []string {
	p.t.Helper()
	var frames []string
	for {
		frame, err := p.readFrame(timeout)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				p.t.Fatalf("bridge did not close the connection within %v (frames so far: %q)", timeout, frames)
			}
			return frames
		}
		frames = append(frames, frame)
	}
}

// Close closes the connection with an orderly FIN.
func (p *Peer) Close() {
	p.connection.Close()
}

// Reset drops the connection with an RST, the way a crashed process
// does.
func (p *Peer) Reset() {
	p.connection.SetLinger(0)
	p.connection.Close()
}

func (p *Peer) readFrame(timeout time.Duration) (string, error) {
	p.connection.SetReadDeadline(time.Now().Add(timeout)) //nolint:realclock OS socket deadline
	for len(p.frames) == 0 {
		count, err := p.connection.Read(p.buffer)
		if count > 0 {
			frames, decodeError := p.decoder.Feed(p.buffer[:count])
			if decodeError != nil {
				return "", decodeError
			}
			p.frames = append(p.frames, frames...)
		}
		if err != nil && len(p.frames) == 0 {
			return "", err
		}
	}
	frame := p.frames[0]
	p.frames = p.frames[1:]
	return frame, nil
}
