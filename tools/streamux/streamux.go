// Streamux multiplexes H.264 video and PCM audio into a stream file, and
// extracts them again.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/depp/assetprep/lib/audio/aiff"
	"github.com/depp/assetprep/lib/cli"
	"github.com/depp/assetprep/lib/stream"
)

var (
	flagDemuxVideo bool
	flagDemuxAudio bool
	flagAIFF       bool
)

var cmdRoot = cobra.Command{
	Use: "streamux VIDEO AUDIO FPS > OUT\n" +
		"  streamux -dv STR > VIDEO\n" +
		"  streamux -da [-aiff] STR > AUDIO",
	Short: "Streamux combines H.264 video and PCM audio into a stream file.",
	Long: "Streamux combines an H.264 elementary stream and 44.1 kHz stereo 16-bit " +
		"audio into a stream file, written to standard output. Audio is raw " +
		"little-endian PCM, or AIFF if the file has an .aif, .aiff, or .aifc extension. " +
		"FPS is the frame rate, N or N/D.",
	RunE: func(_ *cobra.Command, args []string) error {
		switch {
		case flagDemuxVideo && flagDemuxAudio:
			return cli.Usagef("-dv and -da cannot be used together")
		case flagDemuxVideo || flagDemuxAudio:
			if len(args) != 1 {
				return cli.Usagef("got %d arguments, expected 1", len(args))
			}
			return demux(cli.Path(args[0]))
		}
		if flagAIFF {
			return cli.Usagef("-aiff requires -da")
		}
		if len(args) != 3 {
			return cli.Usagef("got %d arguments, expected 3", len(args))
		}
		rate, err := stream.ParseRate(args[2])
		if err != nil {
			return &cli.UsageError{Err: err}
		}
		return mux(cli.Path(args[0]), cli.Path(args[1]), rate)
	},
}

func init() {
	f := cmdRoot.Flags()
	f.BoolVar(&flagDemuxVideo, "dv", false, "extract video from a stream file")
	f.BoolVar(&flagDemuxAudio, "da", false, "extract audio from a stream file")
	f.BoolVar(&flagAIFF, "aiff", false, "write extracted audio as AIFF")
}

func isAIFF(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".aif", ".aiff", ".aifc":
		return true
	}
	return false
}

// readAudio reads audio and returns it as interleaved stereo 16-bit
// little-endian samples.
func readAudio(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if !isAIFF(filename) {
		return data, nil
	}
	a, err := aiff.Parse(data)
	if err != nil {
		return nil, &cli.FileError{Name: filename, Err: err}
	}
	if n := a.Common.NumChannels; n != stream.AudioChannels {
		return nil, &cli.FileError{Name: filename, Err: fmt.Errorf("audio has %d channels, expected %d", n, stream.AudioChannels)}
	}
	if r := a.Common.Rate(); r != stream.AudioRate {
		logrus.Warnf("%s: sample rate is %v Hz, stream playback uses %d Hz", filename, r, stream.AudioRate)
	}
	pcm, err := a.PCM16LE()
	if err != nil {
		return nil, &cli.FileError{Name: filename, Err: err}
	}
	return pcm, nil
}

func mux(video, audio string, rate stream.Rate) error {
	vdata, err := os.ReadFile(video)
	if err != nil {
		return err
	}
	adata, err := readAudio(audio)
	if err != nil {
		return err
	}
	if err := stream.Mux(os.Stdout, vdata, adata, rate); err != nil {
		return &cli.FileError{Name: video, Err: err}
	}
	return nil
}

func demux(input string) error {
	fp, err := os.Open(input)
	if err != nil {
		return err
	}
	defer fp.Close()
	st, err := fp.Stat()
	if err != nil {
		return err
	}
	r, err := stream.NewReader(fp, st.Size())
	if err != nil {
		return &cli.FileError{Name: input, Err: err}
	}
	if flagDemuxVideo {
		w := bufio.NewWriter(os.Stdout)
		if err := r.WriteVideo(w); err != nil {
			return err
		}
		return w.Flush()
	}
	if !flagAIFF {
		w := bufio.NewWriter(os.Stdout)
		if err := r.WriteAudio(w); err != nil {
			return err
		}
		return w.Flush()
	}
	var pcm bytes.Buffer
	if err := r.WriteAudio(&pcm); err != nil {
		return err
	}
	data, err := aiff.NewPCM16(stream.AudioChannels, stream.AudioRate, pcm.Bytes()).Write(false)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func main() {
	cli.Main(&cmdRoot)
}
