// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package i2cbus

import (
	"errors"
	"sync"
	"testing"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"tinygo.org/x/drivers"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
)

var _ ams5935.Transactor = (*Shared)(nil)

func TestTransactExclusive(t *testing.T) {
	rec := &i2ctest.Record{}
	s := New(rec)

	var wg sync.WaitGroup
	for _, addr := range []uint16{0x28, 0x29} {
		addr := addr
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				err := s.Transact(func(b i2c.Bus) error {
					if err := b.Tx(addr, []byte{0xAA}, nil); err != nil {
						return err
					}
					return b.Tx(addr, []byte{0x00}, nil)
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(rec.Ops) != 80 {
		t.Fatalf("ops = %d, want 80", len(rec.Ops))
	}
	// Each trigger is immediately followed by the second write of the same
	// device.
	for i := 0; i < len(rec.Ops); i += 2 {
		a, b := rec.Ops[i], rec.Ops[i+1]
		if a.Addr != b.Addr || a.W[0] != 0xAA || b.W[0] != 0x00 {
			t.Fatalf("interleaved transaction at op %d: %+v %+v", i, a, b)
		}
	}
}

func TestTxPassThrough(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{{Addr: 0x3C, W: []byte{0x00, 0xAF}}},
	}
	s := New(bus)
	if err := s.Tx(0x3C, []byte{0x00, 0xAF}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if s.String() != "playback" {
		t.Fatalf("String() = %q", s.String())
	}
}

type fakeTinyGo struct {
	addrs []uint16
	err   error
}

var _ drivers.I2C = (*fakeTinyGo)(nil)

func (f *fakeTinyGo) Tx(addr uint16, w, r []byte) error {
	f.addrs = append(f.addrs, addr)
	for i := range r {
		r[i] = byte(i)
	}
	return f.err
}

func TestFromTinyGo(t *testing.T) {
	f := &fakeTinyGo{}
	b := FromTinyGo(f, "")
	r := make([]byte, 3)
	if err := b.Tx(0x28, nil, r); err != nil {
		t.Fatal(err)
	}
	if r[2] != 2 || len(f.addrs) != 1 || f.addrs[0] != 0x28 {
		t.Fatalf("r = %v, addrs = %v", r, f.addrs)
	}
	if b.String() != "tinygo-i2c" {
		t.Fatalf("String() = %q", b.String())
	}
	if err := b.SetSpeed(0); !errors.Is(err, ErrSpeedUnsupported) {
		t.Fatalf("SetSpeed err = %v", err)
	}
}
