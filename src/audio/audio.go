// Package audio captures system audio output through a WASAPI loopback
// device. The encoder pulls audio through its own input; this package exists
// to verify loopback availability before a recording starts and to feed the
// level meter while one is running.
package audio

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
)

const (
	SampleRate = 48000
	Channels   = 2
	Format     = malgo.FormatS16
)

// chunkBuffer bounds memory when no consumer keeps up; stale packets are
// dropped rather than delaying fresh ones.
const chunkBuffer = 50

// Manager owns the malgo context and at most one running loopback device.
type Manager struct {
	ctx *malgo.AllocatedContext

	mu      sync.Mutex
	device  *malgo.Device
	running bool

	chunks chan []byte
}

// NewManager initializes the audio backend. Returns an error when no audio
// subsystem is available; recording without audio still works in that case.
func NewManager() (*Manager, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &Manager{
		ctx:    ctx,
		chunks: make(chan []byte, chunkBuffer),
	}, nil
}

// Chunks delivers captured PCM packets (S16LE, interleaved stereo). Packets
// are dropped when the channel is full.
func (m *Manager) Chunks() <-chan []byte { return m.chunks }

// Start opens the loopback device and begins capturing.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.Capture.Format = Format
	deviceConfig.Capture.Channels = Channels
	deviceConfig.SampleRate = SampleRate
	deviceConfig.Alsa.NoMMap = 1

	onRecv := func(pOutput, pInput []byte, frameCount uint32) {
		if frameCount == 0 {
			return
		}
		// The device buffer is reused after the callback returns.
		packet := make([]byte, len(pInput))
		copy(packet, pInput)
		select {
		case m.chunks <- packet:
		default:
		}
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecv})
	if err != nil {
		return fmt.Errorf("failed to open loopback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start loopback device: %w", err)
	}

	m.device = device
	m.running = true
	log.Printf("Audio: loopback capture started (%d Hz, %d ch)", SampleRate, Channels)
	return nil
}

// Stop tears down the device and drains buffered packets.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	m.running = false
	for len(m.chunks) > 0 {
		<-m.chunks
	}
}

// Available reports whether a loopback device can be opened right now.
func (m *Manager) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return true
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.Capture.Format = Format
	deviceConfig.Capture.Channels = Channels
	deviceConfig.SampleRate = SampleRate

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, malgo.DeviceCallbacks{})
	if err != nil {
		return false
	}
	device.Uninit()
	return true
}

func (m *Manager) Close() {
	m.Stop()
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
}

// PeakLevel returns the loudest sample in an S16LE packet, normalized to
// 0..1. Drives the recording level meter.
func PeakLevel(packet []byte) float64 {
	var peak int32
	for i := 0; i+1 < len(packet); i += 2 {
		s := int32(int16(binary.LittleEndian.Uint16(packet[i:])))
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return float64(peak) / 32768.0
}
