package asset

import (
	"fmt"

	"github.com/openrip/openrip/internal/object"
)

// AudioCodec identifies the stored audio payload encoding.
type AudioCodec uint32

const (
	AudioPCM    AudioCodec = 0
	AudioVorbis AudioCodec = 1
)

func (c AudioCodec) String() string {
	switch c {
	case AudioPCM:
		return "pcm"
	case AudioVorbis:
		return "vorbis"
	default:
		return fmt.Sprintf("codec(%d)", uint32(c))
	}
}

// Audio is a decoded audio clip: stream parameters plus the payload in
// its stored codec.
type Audio struct {
	Name          string
	Channels      uint32
	Frequency     uint32
	BitsPerSample uint32
	Seconds       float32
	Codec         AudioCodec
	Data          []byte
}

func (a *Audio) AssetName() string      { return a.Name }
func (a *Audio) AssetKind() object.Kind { return object.KindAudio }

// AudioDecoder parses the audio sub-layout: aligned name, channels,
// frequency, bits per sample, length in seconds, codec, then a sized
// payload.
type AudioDecoder struct{}

func (AudioDecoder) Kind() object.Kind { return object.KindAudio }

func (AudioDecoder) Decode(rec *object.Record) (Decoded, error) {
	c := &cursor{data: rec.Data()}

	name, err := c.alignedString()
	if err != nil {
		return nil, fmt.Errorf("audio %q: name: %w", rec.Entry.Name, err)
	}

	var a Audio
	a.Name = name
	if a.Channels, err = c.u32(); err != nil {
		return nil, fmt.Errorf("audio %q: channels: %w", name, err)
	}
	if a.Frequency, err = c.u32(); err != nil {
		return nil, fmt.Errorf("audio %q: frequency: %w", name, err)
	}
	if a.BitsPerSample, err = c.u32(); err != nil {
		return nil, fmt.Errorf("audio %q: bits per sample: %w", name, err)
	}
	if a.Seconds, err = c.f32(); err != nil {
		return nil, fmt.Errorf("audio %q: length: %w", name, err)
	}
	codec, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("audio %q: codec: %w", name, err)
	}
	a.Codec = AudioCodec(codec)

	size, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("audio %q: data size: %w", name, err)
	}
	if a.Data, err = c.bytes(int(size)); err != nil {
		return nil, fmt.Errorf("audio %q: payload: %w", name, err)
	}

	if a.Channels == 0 || a.Frequency == 0 {
		return nil, fmt.Errorf("audio %q: invalid stream parameters (%d channels at %d Hz)", name, a.Channels, a.Frequency)
	}

	return &a, nil
}
