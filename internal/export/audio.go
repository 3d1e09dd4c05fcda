package export

import (
	"encoding/binary"
	"fmt"

	"github.com/openrip/openrip/internal/asset"
	"github.com/openrip/openrip/internal/bundle"
)

func convertAudio(a *asset.Audio) (Artifact, error) {
	switch a.Codec {
	case asset.AudioVorbis:
		// Vorbis payloads are already a complete Ogg stream.
		return Artifact{Name: a.Name + ".ogg", MediaType: "audio/ogg", Data: a.Data}, nil
	case asset.AudioPCM:
		wav, err := wrapWAV(a)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Name: a.Name + ".wav", MediaType: "audio/wav", Data: wav}, nil
	}
	return Artifact{}, fmt.Errorf("%w: audio codec %d", bundle.ErrUnsupportedConversion, a.Codec)
}

// wrapWAV frames raw PCM samples in a RIFF/WAVE container.
func wrapWAV(a *asset.Audio) ([]byte, error) {
	if a.BitsPerSample%8 != 0 || a.BitsPerSample == 0 {
		return nil, fmt.Errorf("audio %q: unsupported sample width %d", a.Name, a.BitsPerSample)
	}

	blockAlign := uint16(a.Channels) * uint16(a.BitsPerSample/8)
	byteRate := a.Frequency * uint32(blockAlign)

	out := make([]byte, 0, 44+len(a.Data))
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(a.Data)))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, uint16(a.Channels))
	out = binary.LittleEndian.AppendUint32(out, a.Frequency)
	out = binary.LittleEndian.AppendUint32(out, byteRate)
	out = binary.LittleEndian.AppendUint16(out, blockAlign)
	out = binary.LittleEndian.AppendUint16(out, uint16(a.BitsPerSample))

	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(a.Data)))
	out = append(out, a.Data...)
	return out, nil
}
