package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Compile-time interface check.
var _ domain.Playback = (*OtoPlayback)(nil)

// OtoPlayback plays prepared PCM clips through oto. Every Play call gets
// its own oto.Player, so each channel has an independent volume.
type OtoPlayback struct {
	ctx    *oto.Context
	log    *logger.Logger
	sounds map[domain.Channel][]byte // 16-bit LE PCM per channel

	mu      sync.Mutex
	players map[domain.SoundHandle]*oto.Player
	next    domain.SoundHandle
}

// NewOtoPlayback initializes the system audio context. Only one oto
// context may exist per process. Returns an error if the audio device is
// unavailable.
func NewOtoPlayback(sampleRate int, sounds map[domain.Channel][]byte, log *logger.Logger) (*OtoPlayback, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlaybackUnavailable, err)
	}
	<-readyChan

	log.Debug("audio playback initialized (rate=%d, channels=%d)", sampleRate, ChannelCount)
	return &OtoPlayback{
		ctx:     ctx,
		log:     log,
		sounds:  sounds,
		players: make(map[domain.SoundHandle]*oto.Player),
	}, nil
}

// PlayLooped starts the channel's clip and repeats it until stopped.
func (p *OtoPlayback) PlayLooped(ch domain.Channel) (domain.SoundHandle, error) {
	pcm, err := p.clip(ch)
	if err != nil {
		return 0, err
	}
	return p.start(ch, &loopReader{pcm: pcm}), nil
}

// PlayOnce starts the channel's clip a single time.
func (p *OtoPlayback) PlayOnce(ch domain.Channel) (domain.SoundHandle, error) {
	pcm, err := p.clip(ch)
	if err != nil {
		return 0, err
	}
	return p.start(ch, bytes.NewReader(pcm)), nil
}

func (p *OtoPlayback) clip(ch domain.Channel) ([]byte, error) {
	pcm := p.sounds[ch]
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: no sound loaded for %s", domain.ErrPlaybackUnavailable, ch)
	}
	if err := p.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlaybackUnavailable, err)
	}
	return pcm, nil
}

func (p *OtoPlayback) start(ch domain.Channel, r io.Reader) domain.SoundHandle {
	player := p.ctx.NewPlayer(r)
	// Start silent; the arbiter pushes the real volume on its next tick.
	player.SetVolume(0)
	player.Play()

	p.mu.Lock()
	p.next++
	h := p.next
	p.players[h] = player
	p.mu.Unlock()

	p.log.Debug("audio: started %s (handle=%d)", ch, h)
	return h
}

// Stop halts and releases a playback. Unknown handles are ignored.
func (p *OtoPlayback) Stop(h domain.SoundHandle) {
	p.mu.Lock()
	player, ok := p.players[h]
	delete(p.players, h)
	p.mu.Unlock()

	if !ok {
		return
	}
	player.Pause()
	if err := player.Close(); err != nil {
		p.log.Warn("audio: closing handle %d: %v", h, err)
	}
	p.log.Debug("audio: stopped handle %d", h)
}

// SetVolume sets the gain of a playback. Unknown handles are ignored.
func (p *OtoPlayback) SetVolume(h domain.SoundHandle, volume float64) {
	p.mu.Lock()
	player, ok := p.players[h]
	p.mu.Unlock()

	if ok {
		player.SetVolume(volume)
	}
}

// IsBusy reports whether a playback is still producing sound. A finished
// one-shot clip is released here.
func (p *OtoPlayback) IsBusy(h domain.SoundHandle) bool {
	p.mu.Lock()
	player, ok := p.players[h]
	p.mu.Unlock()

	if !ok {
		return false
	}
	if player.IsPlaying() {
		return true
	}
	p.Stop(h)
	return false
}

// Close stops every playback.
func (p *OtoPlayback) Close() {
	p.mu.Lock()
	handles := make([]domain.SoundHandle, 0, len(p.players))
	for h := range p.players {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	for _, h := range handles {
		p.Stop(h)
	}
}

// loopReader serves its PCM forever, wrapping at the end.
type loopReader struct {
	pcm []byte
	pos int
}

func (r *loopReader) Read(b []byte) (int, error) {
	if len(r.pcm) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(b) {
		c := copy(b[n:], r.pcm[r.pos:])
		n += c
		r.pos = (r.pos + c) % len(r.pcm)
	}
	return n, nil
}
