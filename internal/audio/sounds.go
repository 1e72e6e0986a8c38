package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Audio format shared by every clip: mono signed 16-bit little endian.
const (
	ChannelCount      = 1
	BitDepth          = 16
	DefaultSampleRate = 44100
)

const (
	noiseLength = 8 * time.Second
	alarmLength = 6 * time.Second
	noiseSeed   = 1
)

// SoundFiles names the clips for the looped and one-shot channels. An
// empty path selects the generated sound.
type SoundFiles struct {
	Noise string
	Alarm string
}

// LoadSounds returns PCM for the noise and alarm tone channels. A file
// that cannot be used is logged and replaced by the generated sound, so
// the alarm always has something to ring with.
func LoadSounds(files SoundFiles, sampleRate int, log *logger.Logger) map[domain.Channel][]byte {
	sounds := make(map[domain.Channel][]byte, 2)

	sounds[domain.ChannelNoise] = loadOrGenerate(files.Noise, sampleRate, log, func() []byte {
		return GenerateNoise(sampleRate, noiseLength, noiseSeed)
	})
	sounds[domain.ChannelAlarmTone] = loadOrGenerate(files.Alarm, sampleRate, log, func() []byte {
		return GenerateAlarmTone(sampleRate, alarmLength)
	})
	return sounds
}

func loadOrGenerate(path string, sampleRate int, log *logger.Logger, generate func() []byte) []byte {
	if path == "" {
		return generate()
	}
	pcm, err := LoadWAV(path, sampleRate)
	if err != nil {
		log.Warn("audio: %v; using generated sound", err)
		return generate()
	}
	log.Debug("audio: loaded %s (%d bytes)", path, len(pcm))
	return pcm
}

// wavFormat is the subset of the RIFF "fmt " chunk we check.
type wavFormat struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// LoadWAV reads a WAV file and returns its raw PCM. The file must already
// be in the playback format; no resampling is done.
func LoadWAV(path string, sampleRate int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	pcm, format, err := decodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if format.audioFormat != 1 || format.bitsPerSample != BitDepth || format.channels != ChannelCount {
		return nil, fmt.Errorf("decode %s: want %d-bit PCM with %d channel(s), got format=%d bits=%d channels=%d",
			path, BitDepth, ChannelCount, format.audioFormat, format.bitsPerSample, format.channels)
	}
	if int(format.sampleRate) != sampleRate {
		return nil, fmt.Errorf("decode %s: sample rate %d does not match playback rate %d", path, format.sampleRate, sampleRate)
	}
	return pcm, nil
}

// decodeWAV walks the RIFF chunks and returns the "data" chunk along with
// the format found in "fmt ".
func decodeWAV(wav []byte) ([]byte, wavFormat, error) {
	var format wavFormat
	if len(wav) < 12 {
		return nil, format, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, format, errors.New("not a valid WAV file")
	}

	seenFormat := false
	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+16 > len(wav) {
				return nil, format, errors.New("fmt chunk too short")
			}
			format.audioFormat = binary.LittleEndian.Uint16(wav[body:])
			format.channels = binary.LittleEndian.Uint16(wav[body+2:])
			format.sampleRate = binary.LittleEndian.Uint32(wav[body+4:])
			format.bitsPerSample = binary.LittleEndian.Uint16(wav[body+14:])
			seenFormat = true
		case "data":
			if !seenFormat {
				return nil, format, errors.New("data chunk before fmt chunk")
			}
			end := body + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[body:end], format, nil
		}

		pos = body + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}

	return nil, format, errors.New("data chunk not found in WAV")
}

// GenerateNoise synthesizes brown noise, a soft rumble that loops without
// an audible seam when d is a few seconds long.
func GenerateNoise(sampleRate int, d time.Duration, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	n := int(float64(sampleRate) * d.Seconds())
	out := make([]byte, n*2)

	var last float64
	for i := 0; i < n; i++ {
		last = (last + 0.02*(rng.Float64()*2-1)) / 1.02
		putSample(out, i, last*3.5)
	}
	// Fade the edges so the loop point does not click.
	edge := sampleRate / 50
	applyEdges(out, edge)
	return out
}

// GenerateAlarmTone synthesizes a beeping alarm: groups of four short
// 880 Hz beeps separated by a pause, repeated for d.
func GenerateAlarmTone(sampleRate int, d time.Duration) []byte {
	const (
		freq   = 880.0
		volume = 0.6
		beep   = 120 * time.Millisecond
		gap    = 80 * time.Millisecond
		rest   = 600 * time.Millisecond
	)
	group := 4*(beep+gap) + rest

	n := int(float64(sampleRate) * d.Seconds())
	out := make([]byte, n*2)
	beepSamples := int(float64(sampleRate) * beep.Seconds())
	ramp := sampleRate / 200 // 5 ms envelope avoids clicks

	for i := 0; i < n; i++ {
		at := time.Duration(float64(i) / float64(sampleRate) * float64(time.Second))
		inGroup := at % group
		if inGroup >= 4*(beep+gap) {
			continue
		}
		inBeep := inGroup % (beep + gap)
		if inBeep >= beep {
			continue
		}
		k := int(float64(sampleRate) * inBeep.Seconds())
		env := 1.0
		if k < ramp {
			env = float64(k) / float64(ramp)
		} else if beepSamples-k < ramp {
			env = float64(beepSamples-k) / float64(ramp)
		}
		t := float64(i) / float64(sampleRate)
		putSample(out, i, volume*env*math.Sin(2*math.Pi*freq*t))
	}
	return out
}

func putSample(buf []byte, i int, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v*math.MaxInt16)))
}

func applyEdges(buf []byte, edge int) {
	n := len(buf) / 2
	if edge*2 > n {
		edge = n / 2
	}
	for i := 0; i < edge; i++ {
		g := float64(i) / float64(edge)
		scaleSample(buf, i, g)
		scaleSample(buf, n-1-i, g)
	}
}

func scaleSample(buf []byte, i int, g float64) {
	s := int16(binary.LittleEndian.Uint16(buf[i*2:]))
	binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(float64(s)*g)))
}
