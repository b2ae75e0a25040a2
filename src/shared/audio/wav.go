package audio

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// Minimal RIFF/WAVE codec for 16 bit PCM. All the surrounding tooling
// (ffmpeg, demucs) reads and writes pcm_s16le wav files, so this is the
// only interchange format the service needs.

const (
	pcmFormatTag   = 1
	bitsPerSample  = 16
	maxSampleValue = 32767
)

func ReadWAVFile(filePath string) (Waveform, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Waveform{}, errors.Wrap(err, "failed to open wav file")
	}
	defer file.Close()

	wave, err := DecodeWAV(bufio.NewReader(file))
	if err != nil {
		return Waveform{}, errors.Wrapf(err, "failed to decode wav file %s", filePath)
	}

	return wave, nil
}

func WriteWAVFile(filePath string, wave Waveform) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to create wav file")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := EncodeWAV(writer, wave); err != nil {
		return errors.Wrapf(err, "failed to encode wav file %s", filePath)
	}

	return writer.Flush()
}

func DecodeWAV(r io.Reader) (Waveform, error) {
	var riffHeader struct {
		ChunkID   [4]byte
		ChunkSize uint32
		Format    [4]byte
	}

	if err := binary.Read(r, binary.LittleEndian, &riffHeader); err != nil {
		return Waveform{}, errors.Wrap(err, "failed to read RIFF header")
	}

	if string(riffHeader.ChunkID[:]) != "RIFF" || string(riffHeader.Format[:]) != "WAVE" {
		return Waveform{}, errors.New("not a RIFF/WAVE stream")
	}

	var (
		sampleRate   int
		channelCount int
		formatSeen   bool
	)

	for {
		var chunkHeader struct {
			ID   [4]byte
			Size uint32
		}

		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				return Waveform{}, errors.New("wav stream has no data chunk")
			}
			return Waveform{}, errors.Wrap(err, "failed to read chunk header")
		}

		switch string(chunkHeader.ID[:]) {
		case "fmt ":
			var format struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}

			if err := binary.Read(r, binary.LittleEndian, &format); err != nil {
				return Waveform{}, errors.Wrap(err, "failed to read format chunk")
			}

			if format.AudioFormat != pcmFormatTag || format.BitsPerSample != bitsPerSample {
				return Waveform{}, errors.Errorf(
					"unsupported wav encoding: format %d, %d bits",
					format.AudioFormat, format.BitsPerSample)
			}

			if format.NumChannels == 0 {
				return Waveform{}, errors.New("wav stream declares zero channels")
			}

			sampleRate = int(format.SampleRate)
			channelCount = int(format.NumChannels)
			formatSeen = true

			if extraBytes := int64(chunkHeader.Size) - 16; extraBytes > 0 {
				if err := skipBytes(r, extraBytes); err != nil {
					return Waveform{}, err
				}
			}

		case "data":
			if !formatSeen {
				return Waveform{}, errors.New("wav data chunk appears before format chunk")
			}

			return decodeDataChunk(r, sampleRate, channelCount, chunkHeader.Size)

		default:
			if err := skipBytes(r, int64(chunkHeader.Size)); err != nil {
				return Waveform{}, err
			}
		}
	}
}

func decodeDataChunk(r io.Reader, sampleRate int, channelCount int, byteSize uint32) (Waveform, error) {
	frameCount := int(byteSize) / (2 * channelCount)
	wave := NewWaveform(sampleRate, channelCount, frameCount)

	raw := make([]int16, frameCount*channelCount)
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return Waveform{}, errors.Wrap(err, "failed to read PCM samples")
	}

	for i, sample := range raw {
		frame := i / channelCount
		channel := i % channelCount
		wave.Samples[channel][frame] = float64(sample) / maxSampleValue
	}

	return wave, nil
}

func EncodeWAV(w io.Writer, wave Waveform) error {
	channelCount := wave.ChannelCount()
	if channelCount == 0 {
		return errors.New("cannot encode waveform with zero channels")
	}

	frameCount := wave.FrameCount()
	dataSize := uint32(frameCount * channelCount * 2)

	riffHeader := struct {
		ChunkID   [4]byte
		ChunkSize uint32
		Format    [4]byte
	}{
		ChunkID:   [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize: 36 + dataSize,
		Format:    [4]byte{'W', 'A', 'V', 'E'},
	}

	if err := binary.Write(w, binary.LittleEndian, riffHeader); err != nil {
		return errors.Wrap(err, "failed to write RIFF header")
	}

	formatChunk := struct {
		ID            [4]byte
		Size          uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{
		ID:            [4]byte{'f', 'm', 't', ' '},
		Size:          16,
		AudioFormat:   pcmFormatTag,
		NumChannels:   uint16(channelCount),
		SampleRate:    uint32(wave.SampleRate),
		ByteRate:      uint32(wave.SampleRate * channelCount * 2),
		BlockAlign:    uint16(channelCount * 2),
		BitsPerSample: bitsPerSample,
	}

	if err := binary.Write(w, binary.LittleEndian, formatChunk); err != nil {
		return errors.Wrap(err, "failed to write format chunk")
	}

	dataHeader := struct {
		ID   [4]byte
		Size uint32
	}{
		ID:   [4]byte{'d', 'a', 't', 'a'},
		Size: dataSize,
	}

	if err := binary.Write(w, binary.LittleEndian, dataHeader); err != nil {
		return errors.Wrap(err, "failed to write data chunk header")
	}

	raw := make([]int16, frameCount*channelCount)
	for channel := range wave.Samples {
		for frame, sample := range wave.Samples[channel] {
			clamped := math.Max(-1, math.Min(1, sample))
			raw[frame*channelCount+channel] = int16(clamped * maxSampleValue)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
		return errors.Wrap(err, "failed to write PCM samples")
	}

	return nil
}

func skipBytes(r io.Reader, count int64) error {
	if _, err := io.CopyN(io.Discard, r, count); err != nil {
		return errors.Wrap(err, "failed to skip chunk bytes")
	}

	return nil
}
