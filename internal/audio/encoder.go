package audio

import (
	"errors"
	"fmt"
	"unsafe"

	ffmpeg "github.com/csnewman/ffmpeg-go"
)

// mp3FrameSize is the fixed frame length libmp3lame expects; the
// asetnsamples filter rechunks the stream to match.
const mp3FrameSize = 1152

// mp3BitRate is the constant output bit rate for mp3 exports.
const mp3BitRate = 192_000

// sourceChunkSamples is how many samples each synthetic frame pushed
// into the encode filter graph carries.
const sourceChunkSamples = 4096

// outputSpec ties an output format name to its codec and the filter
// chain that massages the mono s16 track into what the codec accepts.
type outputSpec struct {
	codecID    ffmpeg.AVCodecID
	sampleFmt  ffmpeg.AVSampleFormat
	filterSpec string
}

func specForFormat(format string) (outputSpec, error) {
	switch format {
	case "wav":
		return outputSpec{
			codecID:    ffmpeg.AVCodecIdPcmS16Le,
			sampleFmt:  ffmpeg.AVSampleFmtS16,
			filterSpec: "aformat=sample_fmts=s16:channel_layouts=mono",
		}, nil
	case "mp3":
		// libmp3lame takes planar input and fixed-size frames.
		return outputSpec{
			codecID:   ffmpeg.AVCodecIdMp3,
			sampleFmt: ffmpeg.AVSampleFmtS16P,
			filterSpec: fmt.Sprintf(
				"aformat=sample_fmts=s16p:channel_layouts=mono,asetnsamples=n=%d:p=0",
				mp3FrameSize,
			),
		}, nil
	default:
		return outputSpec{}, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Encode writes the track to outputPath in the given format ("wav" or
// "mp3"), feeding synthetic frames through a filter graph into the
// muxer the same way decoded frames travel on the way in.
func Encode(track *Track, outputPath, format string) error {
	spec, err := specForFormat(format)
	if err != nil {
		return err
	}

	params := sourceParams{
		timeBaseNum: 1,
		timeBaseDen: track.SampleRate,
		sampleRate:  track.SampleRate,
		sampleFmt:   "s16",
		chLayout:    "mono",
	}

	filterGraph, bufferSrcCtx, bufferSinkCtx, err := newFilterGraph(params, spec.filterSpec)
	if err != nil {
		return err
	}
	defer ffmpeg.AVFilterGraphFree(&filterGraph)

	encoder, err := newOutputEncoder(outputPath, spec, bufferSinkCtx)
	if err != nil {
		return err
	}
	defer encoder.Close()

	filteredFrame := ffmpeg.AVFrameAlloc()
	defer ffmpeg.AVFrameFree(&filteredFrame)

	drain := func() error {
		for {
			if _, err := ffmpeg.AVBuffersinkGetFrame(bufferSinkCtx, filteredFrame); err != nil {
				if errors.Is(err, ffmpeg.EAgain) || errors.Is(err, ffmpeg.AVErrorEOF) {
					return nil
				}
				return fmt.Errorf("failed to get filtered frame: %w", err)
			}

			filteredFrame.SetTimeBase(ffmpeg.AVBuffersinkGetTimeBase(bufferSinkCtx))
			err := encoder.WriteFrame(filteredFrame)
			ffmpeg.AVFrameUnref(filteredFrame)
			if err != nil {
				return err
			}
		}
	}

	srcFrame := ffmpeg.AVFrameAlloc()
	defer ffmpeg.AVFrameFree(&srcFrame)

	for offset := 0; offset < len(track.Samples); offset += sourceChunkSamples {
		n := len(track.Samples) - offset
		if n > sourceChunkSamples {
			n = sourceChunkSamples
		}

		if err := fillSourceFrame(srcFrame, track, offset, n); err != nil {
			return err
		}

		if _, err := ffmpeg.AVBuffersrcAddFrameFlags(bufferSrcCtx, srcFrame, 0); err != nil {
			ffmpeg.AVFrameUnref(srcFrame)
			return fmt.Errorf("failed to add frame to filter: %w", err)
		}
		ffmpeg.AVFrameUnref(srcFrame)

		if err := drain(); err != nil {
			return err
		}
	}

	// Flush the filter graph
	if _, err := ffmpeg.AVBuffersrcAddFrameFlags(bufferSrcCtx, nil, 0); err != nil {
		return fmt.Errorf("failed to flush filter: %w", err)
	}
	if err := drain(); err != nil {
		return err
	}

	// Flush the encoder
	if err := encoder.Flush(); err != nil {
		return err
	}

	return encoder.Close()
}

// fillSourceFrame loads n track samples starting at offset into a fresh
// buffer on the reused source frame.
func fillSourceFrame(frame *ffmpeg.AVFrame, track *Track, offset, n int) error {
	frame.SetNbSamples(n)
	frame.SetFormat(int(ffmpeg.AVSampleFmtS16))
	frame.SetSampleRate(track.SampleRate)
	ffmpeg.AVChannelLayoutDefault(frame.ChLayout(), 1)

	if _, err := ffmpeg.AVFrameGetBuffer(frame, 0); err != nil {
		return fmt.Errorf("failed to allocate frame buffer: %w", err)
	}

	dataPtr := frame.Data().Get(0)
	if dataPtr == nil {
		return fmt.Errorf("frame buffer has no data plane")
	}
	copy(unsafe.Slice((*int16)(dataPtr), n), track.Samples[offset:offset+n])

	// PTS in samples; the abuffer time base is 1/sample_rate.
	frame.SetPts(int64(offset))
	return nil
}

// Encoder wraps the audio encoding and muxing functionality
type Encoder struct {
	fmtCtx    *ffmpeg.AVFormatContext
	encCtx    *ffmpeg.AVCodecContext
	stream    *ffmpeg.AVStream
	packet    *ffmpeg.AVPacket
	streamIdx int
}

// newOutputEncoder creates an encoder and muxer for the output file,
// taking stream parameters from the configured filter sink.
func newOutputEncoder(outputPath string, spec outputSpec, bufferSinkCtx *ffmpeg.AVFilterContext) (*Encoder, error) {
	// Allocate output format context
	outputPathC := ffmpeg.ToCStr(outputPath)
	defer outputPathC.Free()

	var fmtCtx *ffmpeg.AVFormatContext
	if _, err := ffmpeg.AVFormatAllocOutputContext2(&fmtCtx, nil, nil, outputPathC); err != nil {
		return nil, fmt.Errorf("failed to allocate output context: %w", err)
	}

	// Find encoder
	codec := ffmpeg.AVCodecFindEncoder(spec.codecID)
	if codec == nil {
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("encoder not found for codec ID %d: %s", spec.codecID, outputPath)
	}

	// Create stream
	stream := ffmpeg.AVFormatNewStream(fmtCtx, nil)
	if stream == nil {
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to create stream for output: %s", outputPath)
	}

	// Allocate encoder context
	encCtx := ffmpeg.AVCodecAllocContext3(codec)
	if encCtx == nil {
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to allocate encoder context for output: %s", outputPath)
	}

	// Verify filter output is configured
	if _, err := ffmpeg.AVBuffersinkGetFormat(bufferSinkCtx); err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to get sample format: %w", err)
	}

	sampleRate, err := ffmpeg.AVBuffersinkGetSampleRate(bufferSinkCtx)
	if err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to get sample rate: %w", err)
	}

	timeBase := ffmpeg.AVBuffersinkGetTimeBase(bufferSinkCtx)

	// Configure encoder to match the filter output
	encCtx.SetSampleFmt(spec.sampleFmt)
	encCtx.SetSampleRate(sampleRate)

	channels, err := ffmpeg.AVBuffersinkGetChannels(bufferSinkCtx)
	if err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}

	// Set default channel layout for the encoder
	ffmpeg.AVChannelLayoutDefault(encCtx.ChLayout(), channels)

	if spec.codecID == ffmpeg.AVCodecIdMp3 {
		ffmpeg.AVOptSetInt(encCtx.RawPtr(), ffmpeg.GlobalCStr("b"), mp3BitRate, 0)
		// Must match the asetnsamples filter
		encCtx.SetFrameSize(mp3FrameSize)
	}

	// Set global header flag if needed by the format
	if fmtCtx.Oformat().Flags()&ffmpeg.AVFmtGlobalheader != 0 {
		encCtx.SetFlags(encCtx.Flags() | ffmpeg.AVCodecFlagGlobalHeader)
	}

	encCtx.SetTimeBase(timeBase)

	// Open encoder
	if _, err := ffmpeg.AVCodecOpen2(encCtx, codec, nil); err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to open encoder: %w", err)
	}

	// Copy encoder parameters to stream
	if _, err := ffmpeg.AVCodecParametersFromContext(stream.Codecpar(), encCtx); err != nil {
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to copy encoder parameters: %w", err)
	}

	stream.SetTimeBase(encCtx.TimeBase())

	// Open output file
	if fmtCtx.Oformat().Flags()&ffmpeg.AVFmtNofile == 0 {
		var pb *ffmpeg.AVIOContext
		if _, err := ffmpeg.AVIOOpen(&pb, outputPathC, ffmpeg.AVIOFlagWrite); err != nil {
			ffmpeg.AVCodecFreeContext(&encCtx)
			ffmpeg.AVFormatFreeContext(fmtCtx)
			return nil, fmt.Errorf("failed to open output file: %w", err)
		}
		fmtCtx.SetPb(pb)
	}

	// Write header
	if _, err := ffmpeg.AVFormatWriteHeader(fmtCtx, nil); err != nil {
		if fmtCtx.Pb() != nil {
			ffmpeg.AVIOClose(fmtCtx.Pb())
		}
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	packet := ffmpeg.AVPacketAlloc()
	if packet == nil {
		if fmtCtx.Pb() != nil {
			ffmpeg.AVIOClose(fmtCtx.Pb())
		}
		ffmpeg.AVCodecFreeContext(&encCtx)
		ffmpeg.AVFormatFreeContext(fmtCtx)
		return nil, fmt.Errorf("failed to allocate packet for output: %s", outputPath)
	}

	return &Encoder{
		fmtCtx:    fmtCtx,
		encCtx:    encCtx,
		stream:    stream,
		packet:    packet,
		streamIdx: 0,
	}, nil
}

// WriteFrame encodes and writes a single audio frame
func (e *Encoder) WriteFrame(frame *ffmpeg.AVFrame) error {
	// Rescale PTS to encoder timebase if needed
	if frame.Pts() != ffmpeg.AVNoptsValue {
		frame.SetPts(
			ffmpeg.AVRescaleQ(frame.Pts(), frame.TimeBase(), e.encCtx.TimeBase()),
		)
	}

	// Send frame to encoder
	if _, err := ffmpeg.AVCodecSendFrame(e.encCtx, frame); err != nil {
		return fmt.Errorf("failed to send frame to encoder: %w", err)
	}

	// Receive encoded packets
	return e.receivePackets()
}

// Flush flushes the encoder
func (e *Encoder) Flush() error {
	// Send NULL frame to signal flush
	if _, err := ffmpeg.AVCodecSendFrame(e.encCtx, nil); err != nil {
		return fmt.Errorf("failed to flush encoder: %w", err)
	}

	return e.receivePackets()
}

// receivePackets receives and writes packets from the encoder
func (e *Encoder) receivePackets() error {
	for {
		ffmpeg.AVPacketUnref(e.packet)

		if _, err := ffmpeg.AVCodecReceivePacket(e.encCtx, e.packet); err != nil {
			if errors.Is(err, ffmpeg.EAgain) || errors.Is(err, ffmpeg.AVErrorEOF) {
				break
			}
			return fmt.Errorf("failed to receive packet: %w", err)
		}

		// Set stream index
		e.packet.SetStreamIndex(e.streamIdx)

		// Rescale timestamps
		ffmpeg.AVPacketRescaleTs(e.packet, e.encCtx.TimeBase(), e.stream.TimeBase())

		// Write packet
		if _, err := ffmpeg.AVInterleavedWriteFrame(e.fmtCtx, e.packet); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	}

	return nil
}

// Close closes the encoder and output file
// Safe to call multiple times - subsequent calls are no-ops.
func (e *Encoder) Close() error {
	// Guard against double-close
	if e.fmtCtx == nil {
		return nil
	}

	// Write trailer
	if _, err := ffmpeg.AVWriteTrailer(e.fmtCtx); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}

	// Free resources
	ffmpeg.AVPacketFree(&e.packet)
	ffmpeg.AVCodecFreeContext(&e.encCtx)

	// Close output file
	if e.fmtCtx.Oformat().Flags()&ffmpeg.AVFmtNofile == 0 {
		if e.fmtCtx.Pb() != nil {
			if _, err := ffmpeg.AVIOClose(e.fmtCtx.Pb()); err != nil {
				return fmt.Errorf("failed to close output file: %w", err)
			}
			e.fmtCtx.SetPb(nil)
		}
	}

	ffmpeg.AVFormatFreeContext(e.fmtCtx)
	e.fmtCtx = nil // Mark as closed

	return nil
}
